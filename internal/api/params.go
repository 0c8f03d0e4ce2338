package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/query"
	"github.com/a01094554781-oss/kfestival/internal/validation"
)

// multi returns every value of key, accepting both repetition
// (?region=a&region=b) and comma lists (?region=a,b). Blank items are dropped.
func multi(values url.Values, key string) []string {
	var out []string
	for _, v := range values[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (s *Server) language(values url.Values) (query.Language, error) {
	raw := values.Get("lang")
	if strings.TrimSpace(raw) == "" {
		return s.opts.Language, nil
	}
	return query.ParseLanguage(raw)
}

// filterState builds and validates the filter of a request.
func (s *Server) filterState(r *http.Request) (query.FilterState, error) {
	values := r.URL.Query()

	lang, err := s.language(values)
	if err != nil {
		return query.FilterState{}, err
	}

	var months []int
	for _, m := range multi(values, "month") {
		n, err := strconv.Atoi(m)
		if err != nil {
			return query.FilterState{}, errors.NewInvalidFilterError("month", fmt.Sprintf("%q is not a number", m))
		}
		months = append(months, n)
	}

	state := query.FilterState{
		Months:     months,
		Regions:    multi(values, "region"),
		Categories: multi(values, "category"),
		Search:     values.Get("q"),
		Language:   lang,
	}
	if err := state.Validate(); err != nil {
		return query.FilterState{}, err
	}
	return state, nil
}

// intParam parses an optional integer parameter within [lo, hi].
func intParam(values url.Values, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewInvalidFilterError(key, fmt.Sprintf("%q is not a number", raw))
	}
	if n < lo || n > hi {
		return 0, errors.NewInvalidFilterError(key, fmt.Sprintf("%d is outside %d..%d", n, lo, hi))
	}
	return n, nil
}

type nearestRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

func parseNearest(values url.Values) (nearestRequest, error) {
	var req nearestRequest
	for _, f := range []struct {
		key string
		dst *float64
	}{{"lat", &req.Lat}, {"lon", &req.Lon}} {
		key, dst := f.key, f.dst
		raw := strings.TrimSpace(values.Get(key))
		if raw == "" {
			return req, errors.NewInvalidFilterError(key, "is required")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, errors.NewInvalidFilterError(key, fmt.Sprintf("%q is not a number", raw))
		}
		*dst = v
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		return req, verr.QueryError("nearest")
	}
	return req, nil
}
