// Package io reads the festival source file into a normalized raw table and
// writes filtered views back out.
//
// Key components:
//   - Load/Decode for CSV ingestion with UTF-8 → CP949 fallback
//   - CleanNumber/ParseMonth for lenient per-cell parsing
//   - RecordWriter with CSV (UTF-8 BOM) and Parquet implementations
//
// Memory management: Parquet export builds Arrow columns that are released
// before the writer returns.
package io

import (
	"fmt"
	"io"
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

const (
	// DefaultBatchSize is the default Parquet row-group batch size
	DefaultBatchSize = 1024

	// FormatCSV and FormatParquet name the supported export formats.
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// RecordWriter writes a sequence of prepared records to a destination
type RecordWriter interface {
	Write(records []dataset.Record) error
}

// CSVOptions contains configuration options for CSV ingestion
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// LazyQuotes tolerates stray quotes inside unquoted fields
	LazyQuotes bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:  ',',
		LazyQuotes: true,
	}
}

// CSVWriter writes records as UTF-8 CSV with a byte-order mark
type CSVWriter struct {
	writer    io.Writer
	delimiter rune
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	d := options.Delimiter
	if d == 0 {
		d = ','
	}
	return &CSVWriter{writer: writer, delimiter: d}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression is one of snappy, gzip, zstd, lz4, uncompressed
	Compression string
	// BatchSize for writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetWriter writes records to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions, mem memory.Allocator) *ParquetWriter {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBatchSize
	}
	return &ParquetWriter{
		writer:  writer,
		options: options,
		mem:     mem,
	}
}

// NewRecordWriter returns the writer for an export format name.
func NewRecordWriter(format string, w io.Writer, csvOpts CSVOptions, pqOpts ParquetOptions) (RecordWriter, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return NewCSVWriter(w, csvOpts), nil
	case FormatParquet:
		return NewParquetWriter(w, pqOpts, nil), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// ContentType returns the MIME type for an export format name.
func ContentType(format string) string {
	if strings.EqualFold(format, FormatParquet) {
		return "application/vnd.apache.parquet"
	}
	return "text/csv; charset=utf-8"
}
