package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/a01094554781-oss/kfestival/internal/cache"
	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/geo"
	"github.com/a01094554781-oss/kfestival/internal/i18n"
	"github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/monitoring"
	"github.com/a01094554781-oss/kfestival/internal/query"
	"github.com/a01094554781-oss/kfestival/internal/reftable"
	"github.com/a01094554781-oss/kfestival/internal/version"
)

// Limits on numeric parameters.
const (
	maxTopN      = 100
	maxCardLimit = 1000
)

const exportBaseName = "korea_festivals"

// Options configures the API handlers.
type Options struct {
	Tables           *reftable.Tables
	Language         query.Language
	CardLimit        int
	TopN             int
	GeohashPrecision int
	CSV              io.CSVOptions
	Parquet          io.ParquetOptions
}

func (o Options) withDefaults() Options {
	if o.Tables == nil {
		o.Tables = reftable.Default()
	}
	if !o.Language.Valid() {
		o.Language = query.KO
	}
	if o.CardLimit <= 0 {
		o.CardLimit = query.DefaultCardLimit
	}
	if o.TopN <= 0 {
		o.TopN = 10
	}
	if o.GeohashPrecision <= 0 {
		o.GeohashPrecision = geo.DefaultPrecision
	}
	if o.CSV.Delimiter == 0 {
		o.CSV = io.DefaultCSVOptions()
	}
	if o.Parquet.Compression == "" {
		o.Parquet = io.DefaultParquetOptions()
	}
	return o
}

// Server serves the festival API from the snapshots of a store.
type Server struct {
	store *cache.Store
	opts  Options
}

// New creates an API server.
func New(store *cache.Store, opts Options) *Server {
	return &Server{store: store, opts: opts.withDefaults()}
}

// snapshot returns the current snapshot or answers 503.
func (s *Server) snapshot(w http.ResponseWriter) (*cache.Snapshot, bool) {
	snap := s.store.Current()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotReady, "dataset is not loaded", nil)
		return nil, false
	}
	return snap, true
}

// view resolves the snapshot and filter of a request and applies the filter.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (*cache.Snapshot, query.FilterState, []dataset.Record, bool) {
	snap, ok := s.snapshot(w)
	if !ok {
		return nil, query.FilterState{}, nil, false
	}
	state, err := s.filterState(r)
	if err != nil {
		respondErr(w, err)
		return nil, query.FilterState{}, nil, false
	}

	var records []dataset.Record
	_ = monitoring.RecordGlobalOperation("filter", func() error {
		records = query.Filter(snap.Dataset, state)
		return nil
	})
	return snap, state, records, true
}

func (s *Server) ok(w http.ResponseWriter, snap *cache.Snapshot, lang query.Language, count *int, start time.Time, data any) {
	meta := Metadata{
		Timestamp:   time.Now(),
		Language:    string(lang),
		Count:       count,
		QueryTimeMS: queryTimeMS(start),
	}
	if snap != nil {
		meta.Generation = snap.Generation.String()
	}
	respondJSON(w, http.StatusOK, &APIResponse{Status: "success", Data: data, Metadata: meta})
}

// Health reports liveness and the current snapshot.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	info := version.Info()
	snap := s.store.Current()
	body := map[string]any{
		"status":  "ok",
		"version": info.Version,
		"commit":  info.ShortCommit(),
	}
	status := http.StatusOK
	if snap == nil {
		body["status"] = "loading"
		status = http.StatusServiceUnavailable
	} else {
		body["generation"] = snap.Generation.String()
		body["rows"] = snap.Dataset.Len()
		body["loaded_at"] = snap.LoadedAt
		body["encoding"] = snap.Dataset.Encoding()
		body["foreign_visitors_available"] = snap.Dataset.ForeignVisitorsAvailable()
	}
	respondJSON(w, status, &APIResponse{Status: "success", Data: body, Metadata: Metadata{Timestamp: time.Now()}})
}

type seasonOption struct {
	Season query.Season `json:"season"`
	Label  string       `json:"label"`
	Months []int        `json:"months"`
}

// Options returns the sidebar choices and labels for a language.
func (s *Server) Options(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	lang, err := s.language(r.URL.Query())
	if err != nil {
		respondErr(w, err)
		return
	}

	seasons := make([]seasonOption, 0, 4)
	for _, se := range query.Seasons() {
		seasons = append(seasons, seasonOption{Season: se, Label: i18n.Season(lang, se), Months: se.Months()})
	}
	s.ok(w, snap, lang, nil, start, map[string]any{
		"months":     query.Months(),
		"regions":    query.RegionOptions(snap.Dataset, lang),
		"categories": query.CategoryOptions(snap.Dataset, lang),
		"seasons":    seasons,
		"columns":    query.Columns(lang),
		"labels":     i18n.For(lang),
	})
}

// Festivals returns the filtered records in source order.
func (s *Server) Festivals(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, state, records, ok := s.view(w, r)
	if !ok {
		return
	}
	s.ok(w, snap, state.Language, intPtr(len(records)), start, records)
}

// Summary returns the KPI block of the filtered view.
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, state, records, ok := s.view(w, r)
	if !ok {
		return
	}
	s.ok(w, snap, state.Language, intPtr(len(records)), start, map[string]any{
		"kpi":                        query.Summary(records),
		"foreign_visitors_available": snap.Dataset.ForeignVisitorsAvailable(),
	})
}

// Top returns the n filtered records with the most foreign visitors.
func (s *Server) Top(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, state, records, ok := s.view(w, r)
	if !ok {
		return
	}
	n, err := intParam(r.URL.Query(), "n", s.opts.TopN, 1, maxTopN)
	if err != nil {
		respondErr(w, err)
		return
	}
	top := query.TopByForeignVisitors(records, n)
	s.ok(w, snap, state.Language, intPtr(len(top)), start, top)
}

// Breakdown returns the group tree of the filtered view.
func (s *Server) Breakdown(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, state, records, ok := s.view(w, r)
	if !ok {
		return
	}
	values := r.URL.Query()
	path := values.Get("path")
	if path == "" {
		path = "region,category,name"
	}
	dims, err := query.ParsePath(path)
	if err != nil {
		respondErr(w, err)
		return
	}
	metric, err := query.ParseMetric(values.Get("metric"))
	if err != nil {
		respondErr(w, err)
		return
	}
	s.ok(w, snap, state.Language, intPtr(len(records)), start, query.GroupTree(records, state.Language, metric, dims...))
}

// Cards returns the display cards of the filtered view.
func (s *Server) Cards(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, state, records, ok := s.view(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", s.opts.CardLimit, 1, maxCardLimit)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.ok(w, snap, state.Language, intPtr(len(records)), start, query.Cards(records, state.Language, limit))
}

// Map returns the markers of the filtered view and the view that fits them.
func (s *Server) Map(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, state, records, ok := s.view(w, r)
	if !ok {
		return
	}
	markers := geo.Project(records, state.Language, s.opts.GeohashPrecision)
	s.ok(w, snap, state.Language, intPtr(len(markers)), start, map[string]any{
		"markers": markers,
		"view":    geo.Fit(markers),
	})
}

// Season returns the seasonal recommendation for the region and category
// filters of the request.
func (s *Server) Season(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	season, err := query.ParseSeason(chi.URLParam(r, "season"))
	if err != nil {
		respondErr(w, err)
		return
	}
	state, err := s.filterState(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	rec := query.Recommend(snap.Dataset, state, season)
	s.ok(w, snap, state.Language, intPtr(len(rec.All)), start, map[string]any{
		"season": rec.Season,
		"label":  i18n.Season(state.Language, season),
		"months": rec.Months,
		"picks":  rec.Picks,
		"all":    rec.All,
	})
}

// NearestRegion returns the region whose centroid is closest to a point.
func (s *Server) NearestRegion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := parseNearest(r.URL.Query())
	if err != nil {
		respondErr(w, err)
		return
	}
	region, km, ok := s.opts.Tables.NearestRegion(req.Lat, req.Lon)
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "no regions are defined", nil)
		return
	}
	s.ok(w, nil, "", nil, start, map[string]any{
		"code":        region.Code,
		"en":          region.EN,
		"centroid":    map[string]float64{"lat": region.Centroid.Lat, "lon": region.Centroid.Lon},
		"distance_km": km,
	})
}

// Export writes the filtered view as a file download.
func (s *Server) Export(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, records, ok := s.view(w, r)
		if !ok {
			return
		}

		var buf bytes.Buffer
		err := monitoring.RecordGlobalOperation("export_"+format, func() error {
			rw, err := io.NewRecordWriter(format, &buf, s.opts.CSV, s.opts.Parquet)
			if err != nil {
				return err
			}
			return rw.Write(records)
		})
		if err != nil {
			respondErr(w, err)
			return
		}

		w.Header().Set("Content-Type", io.ContentType(format))
		w.Header().Set("Content-Disposition", contentDisposition(exportBaseName+"."+format))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// Reload re-reads the source file and swaps the snapshot if it changed.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap, swapped, err := s.store.Reload(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, CodeNotReady, "dataset is not loaded", nil)
		return
	}
	s.ok(w, snap, "", nil, start, map[string]any{
		"swapped":    swapped,
		"generation": snap.Generation.String(),
		"rows":       snap.Dataset.Len(),
		"report":     snap.Dataset.Report(),
	})
}
