package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/logging"
)

// Error codes
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotReady   = "NOT_READY"
	CodeIngestion  = "INGESTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes the snapshot a response was computed from.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	Generation  string    `json:"generation,omitempty"`
	Language    string    `json:"language,omitempty"`
	Count       *int      `json:"count,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// APIError is the machine-readable part of an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}
	respondJSON(w, status, &APIResponse{
		Status:   "error",
		Metadata: Metadata{Timestamp: time.Now()},
		Error:    &APIError{Code: code, Message: message},
	})
}

// respondErr maps err to a status and code.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), err)
	case stderrors.Is(err, errors.ErrIngestion):
		respondError(w, http.StatusInternalServerError, CodeIngestion, err.Error(), err)
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal error", err)
	}
}

// sanitizeLogValue escapes control characters so user input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func queryTimeMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

func intPtr(n int) *int { return &n }

func contentDisposition(filename string) string {
	return "attachment; filename=" + strconv.Quote(filename)
}
