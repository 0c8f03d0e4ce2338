package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/series"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const fieldRow = "row"

// Write writes records to Parquet, one Arrow column per record field.
func (w *ParquetWriter) Write(records []dataset.Record) error {
	table, err := recordsToTable(records, w.mem)
	if err != nil {
		return fmt.Errorf("converting records to Arrow table: %w", err)
	}
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(w.mem),
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(table.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	chunk := int64(w.options.BatchSize)
	if n := table.NumRows(); n > chunk {
		chunk = n
	}
	if err := writer.WriteTable(table, chunk); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed", "none":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// ValidCompression reports whether name selects a known codec.
func ValidCompression(name string) bool {
	switch name {
	case "snappy", "gzip", "lz4", "zstd", "uncompressed", "none":
		return true
	}
	return false
}

func recordsToTable(records []dataset.Record, mem memory.Allocator) (arrow.Table, error) {
	n := len(records)
	var (
		names, localized, regions, regionsEN = make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		categories, categoriesEN             = make([]string, n), make([]string, n)
		searchURLs, videoURLs                = make([]string, n), make([]string, n)
		months, rows                         = make([]int64, n), make([]int64, n)
		visitors, foreign, lats, lons        = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	)
	for i, r := range records {
		names[i], localized[i] = r.Name, r.NameLocalized
		regions[i], regionsEN[i] = r.RegionCode, r.RegionEN
		categories[i], categoriesEN[i] = r.CategoryCode, r.CategoryEN
		months[i] = int64(r.StartMonth)
		visitors[i], foreign[i] = r.Visitors, r.ForeignVisitors
		lats[i], lons[i] = r.Latitude, r.Longitude
		searchURLs[i], videoURLs[i] = r.SearchURL, r.VideoURL
		rows[i] = int64(r.Row)
	}

	columns := []series.Column{
		series.New(dataset.FieldName, names, mem),
		series.New(dataset.FieldNameLocalized, localized, mem),
		series.New(dataset.FieldRegionCode, regions, mem),
		series.New(dataset.FieldRegionEN, regionsEN, mem),
		series.New(dataset.FieldCategoryCode, categories, mem),
		series.New(dataset.FieldCategoryEN, categoriesEN, mem),
		series.New(dataset.FieldStartMonth, months, mem),
		series.New(dataset.FieldVisitors, visitors, mem),
		series.New(dataset.FieldForeignVisitors, foreign, mem),
		series.New(dataset.FieldLatitude, lats, mem),
		series.New(dataset.FieldLongitude, lons, mem),
		series.New(dataset.FieldSearchURL, searchURLs, mem),
		series.New(dataset.FieldVideoURL, videoURLs, mem),
		series.New(fieldRow, rows, mem),
	}
	defer func() {
		for _, c := range columns {
			c.Release()
		}
	}()

	return series.NewTable(columns...)
}

// ReadParquet reads a file produced by ParquetWriter back into records.
// Columns it does not know are ignored; missing ones stay zero.
func ReadParquet(ctx context.Context, r io.Reader, mem memory.Allocator) ([]dataset.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	records := make([]dataset.Record, table.NumRows())
	for i := 0; i < int(table.NumCols()); i++ {
		col := table.Column(i)
		if err := assignColumn(records, col); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func assignColumn(records []dataset.Record, col *arrow.Column) error {
	name := col.Name()
	offset := 0
	for _, chunk := range col.Data().Chunks() {
		switch name {
		case dataset.FieldName, dataset.FieldNameLocalized, dataset.FieldRegionCode, dataset.FieldRegionEN,
			dataset.FieldCategoryCode, dataset.FieldCategoryEN, dataset.FieldSearchURL, dataset.FieldVideoURL:
			s, err := series.FromArray[string](name, chunk)
			if err != nil {
				return err
			}
			for j, v := range s.Values() {
				setString(&records[offset+j], name, v)
			}
			s.Release()
		case dataset.FieldStartMonth, fieldRow:
			s, err := series.FromArray[int64](name, chunk)
			if err != nil {
				return err
			}
			for j, v := range s.Values() {
				if name == fieldRow {
					records[offset+j].Row = int(v)
				} else {
					records[offset+j].StartMonth = int(v)
				}
			}
			s.Release()
		case dataset.FieldVisitors, dataset.FieldForeignVisitors, dataset.FieldLatitude, dataset.FieldLongitude:
			s, err := series.FromArray[float64](name, chunk)
			if err != nil {
				return err
			}
			for j, v := range s.Values() {
				setFloat(&records[offset+j], name, v)
			}
			s.Release()
		}
		offset += chunk.Len()
	}
	return nil
}

func setString(r *dataset.Record, field, v string) {
	switch field {
	case dataset.FieldName:
		r.Name = v
	case dataset.FieldNameLocalized:
		r.NameLocalized = v
	case dataset.FieldRegionCode:
		r.RegionCode = v
	case dataset.FieldRegionEN:
		r.RegionEN = v
	case dataset.FieldCategoryCode:
		r.CategoryCode = v
	case dataset.FieldCategoryEN:
		r.CategoryEN = v
	case dataset.FieldSearchURL:
		r.SearchURL = v
	case dataset.FieldVideoURL:
		r.VideoURL = v
	}
}

func setFloat(r *dataset.Record, field string, v float64) {
	switch field {
	case dataset.FieldVisitors:
		r.Visitors = v
	case dataset.FieldForeignVisitors:
		r.ForeignVisitors = v
	case dataset.FieldLatitude:
		r.Latitude = v
	case dataset.FieldLongitude:
		r.Longitude = v
	}
}
