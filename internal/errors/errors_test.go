package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.IngestionError
		expected string
	}{
		{
			name:     "Error with column",
			err:      errors.NewMissingColumnError("", "start_month"),
			expected: "ingestion schema failed on column 'start_month': required column does not exist",
		},
		{
			name:     "Error with path",
			err:      errors.NewDecodeError("festival.csv", "not UTF-8 or CP949"),
			expected: "ingestion decode failed: not UTF-8 or CP949 (festival.csv)",
		},
		{
			name:     "Error with cause",
			err:      errors.NewMissingFileError("x.csv", stderrors.New("no such file")),
			expected: "ingestion read failed: source file cannot be read (x.csv): no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIngestionError_Unwrap(t *testing.T) {
	cause := stderrors.New("underlying error")
	err := errors.NewParseError("a.csv", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestIngestionError_Is(t *testing.T) {
	err := errors.NewMissingColumnError("a.csv", "visitors")
	wrapped := fmt.Errorf("loading: %w", err)

	assert.ErrorIs(t, wrapped, errors.ErrIngestion)
	assert.ErrorIs(t, wrapped, errors.NewMissingColumnError("b.csv", "visitors"))
	assert.NotErrorIs(t, wrapped, errors.NewMissingColumnError("a.csv", "name"))
	assert.NotErrorIs(t, wrapped, errors.ErrInvalidQuery)

	ie, ok := errors.AsIngestion(wrapped)
	require.True(t, ok)
	assert.Equal(t, "visitors", ie.Column)

	_, ok = errors.AsIngestion(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestQueryError(t *testing.T) {
	err := errors.NewInvalidFilterError("month", "13 is outside 1..12")

	assert.Equal(t, "filter: invalid month: 13 is outside 1..12", err.Error())
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
	assert.NotErrorIs(t, err, errors.ErrIngestion)

	bare := &errors.QueryError{Op: "season", Message: "unknown season"}
	assert.Equal(t, "season: unknown season", bare.Error())
}
