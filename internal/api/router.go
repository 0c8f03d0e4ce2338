package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/logging"
	"github.com/a01094554781-oss/kfestival/internal/monitoring"
)

// Routes returns the HTTP handler of the API.
//
//	GET  /metrics
//	GET  /api/v1/health
//	GET  /api/v1/options
//	GET  /api/v1/festivals
//	GET  /api/v1/summary
//	GET  /api/v1/top
//	GET  /api/v1/breakdown
//	GET  /api/v1/cards
//	GET  /api/v1/map
//	GET  /api/v1/season/{season}
//	GET  /api/v1/regions/nearest
//	GET  /api/v1/export.csv
//	GET  /api/v1/export.parquet
//	POST /api/v1/reload
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(monitoring.Middleware)

	r.Handle("/metrics", monitoring.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.Health)
		r.Get("/options", s.Options)
		r.Get("/festivals", s.Festivals)
		r.Get("/summary", s.Summary)
		r.Get("/top", s.Top)
		r.Get("/breakdown", s.Breakdown)
		r.Get("/cards", s.Cards)
		r.Get("/map", s.Map)
		r.Get("/season/{season}", s.Season)
		r.Get("/regions/nearest", s.NearestRegion)
		r.Get("/export.csv", s.Export(io.FormatCSV))
		r.Get("/export.parquet", s.Export(io.FormatParquet))
		r.Post("/reload", s.Reload)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "no such endpoint", nil)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
