package io_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/io"
)

func sampleRecords(t *testing.T) []dataset.Record {
	t.Helper()
	table, err := io.Decode("festival.csv", []byte(festivalCSV), io.DefaultCSVOptions())
	require.NoError(t, err)
	return dataset.Enrich(table, nil, dataset.Options{}).Records()
}

func TestParquetWriter_RoundTrip(t *testing.T) {
	records := sampleRecords(t)

	for _, codec := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(codec, func(t *testing.T) {
			mem := memory.NewGoAllocator()

			opts := io.DefaultParquetOptions()
			opts.Compression = codec

			var buf bytes.Buffer
			require.NoError(t, io.NewParquetWriter(&buf, opts, mem).Write(records))
			assert.Equal(t, "PAR1", buf.String()[:4])

			got, err := io.ReadParquet(context.Background(), &buf, nil)
			require.NoError(t, err)
			assert.Equal(t, records, got)
		})
	}
}

func TestReadParquet_Invalid(t *testing.T) {
	_, err := io.ReadParquet(context.Background(), bytes.NewReader([]byte("not parquet")), nil)
	assert.Error(t, err)
}

func TestNewRecordWriter(t *testing.T) {
	var buf bytes.Buffer

	w, err := io.NewRecordWriter("CSV", &buf, io.DefaultCSVOptions(), io.DefaultParquetOptions())
	require.NoError(t, err)
	assert.IsType(t, &io.CSVWriter{}, w)

	w, err = io.NewRecordWriter("parquet", &buf, io.DefaultCSVOptions(), io.DefaultParquetOptions())
	require.NoError(t, err)
	assert.IsType(t, &io.ParquetWriter{}, w)

	_, err = io.NewRecordWriter("xlsx", &buf, io.DefaultCSVOptions(), io.DefaultParquetOptions())
	assert.Error(t, err)

	assert.Equal(t, "application/vnd.apache.parquet", io.ContentType("parquet"))
	assert.Equal(t, "text/csv; charset=utf-8", io.ContentType("csv"))
	assert.True(t, io.ValidCompression("zstd"))
	assert.False(t, io.ValidCompression("brotli"))
}
