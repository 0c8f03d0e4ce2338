package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jszwec/csvutil"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
)

// exportRow is the on-disk layout of an exported record. Numbers are
// pre-formatted so large visitor counts never use exponent notation.
type exportRow struct {
	Name            string `csv:"name"`
	NameLocalized   string `csv:"name_localized"`
	RegionCode      string `csv:"region_code"`
	RegionEN        string `csv:"region_en"`
	CategoryCode    string `csv:"category_code"`
	CategoryEN      string `csv:"category_en"`
	StartMonth      int    `csv:"start_month"`
	Visitors        string `csv:"visitors"`
	ForeignVisitors string `csv:"foreign_visitors"`
	Latitude        string `csv:"latitude"`
	Longitude       string `csv:"longitude"`
	SearchURL       string `csv:"search_url"`
	VideoURL        string `csv:"video_url"`
}

func toExportRow(r dataset.Record) exportRow {
	return exportRow{
		Name:            r.Name,
		NameLocalized:   r.NameLocalized,
		RegionCode:      r.RegionCode,
		RegionEN:        r.RegionEN,
		CategoryCode:    r.CategoryCode,
		CategoryEN:      r.CategoryEN,
		StartMonth:      r.StartMonth,
		Visitors:        formatNumber(r.Visitors),
		ForeignVisitors: formatNumber(r.ForeignVisitors),
		Latitude:        strconv.FormatFloat(r.Latitude, 'f', 6, 64),
		Longitude:       strconv.FormatFloat(r.Longitude, 'f', 6, 64),
		SearchURL:       r.SearchURL,
		VideoURL:        r.VideoURL,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write encodes records as CSV preceded by a UTF-8 byte-order mark. The
// header is written even when records is empty.
func (w *CSVWriter) Write(records []dataset.Record) error {
	if _, err := w.writer.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w.writer)
	cw.Comma = w.delimiter

	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false
	if err := enc.EncodeHeader(exportRow{}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range records {
		if err := enc.Encode(toExportRow(records[i])); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// WriteCSV is a convenience wrapper around CSVWriter with default options.
func WriteCSV(w io.Writer, records []dataset.Record) error {
	return NewCSVWriter(w, DefaultCSVOptions()).Write(records)
}
