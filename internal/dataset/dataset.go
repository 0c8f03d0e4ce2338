// Package dataset provides the prepared, immutable festival dataset and the
// enrichment step that derives it from a normalized raw table.
package dataset

import (
	"fmt"
	"strings"
)

// Canonical field names shared by ingestion, export and presentation.
const (
	FieldName            = "name"
	FieldNameLocalized   = "name_localized"
	FieldRegionCode      = "region_code"
	FieldRegionEN        = "region_en"
	FieldCategoryCode    = "category_code"
	FieldCategoryEN      = "category_en"
	FieldStartMonth      = "start_month"
	FieldVisitors        = "visitors"
	FieldForeignVisitors = "foreign_visitors"
	FieldLatitude        = "latitude"
	FieldLongitude       = "longitude"
	FieldSearchURL       = "search_url"
	FieldVideoURL        = "video_url"
)

const (
	// DefaultCategoryCode replaces a blank category cell.
	DefaultCategoryCode = "기타"
	// DefaultCategoryEN labels category codes missing from the tables.
	DefaultCategoryEN = "Others"

	reportSkipPreview = 5
)

// Record is one row of the prepared dataset.
type Record struct {
	Name            string  `json:"name"`
	NameLocalized   string  `json:"name_localized"`
	RegionCode      string  `json:"region_code"`
	RegionEN        string  `json:"region_en"`
	CategoryCode    string  `json:"category_code"`
	CategoryEN      string  `json:"category_en"`
	StartMonth      int     `json:"start_month"`
	Visitors        float64 `json:"visitors"`
	ForeignVisitors float64 `json:"foreign_visitors"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	SearchURL       string  `json:"search_url"`
	VideoURL        string  `json:"video_url"`
	// Row is the zero-based data row in the source file.
	Row int `json:"row"`
}

// SkippedRow describes a source row that was dropped during ingestion.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report summarizes what ingestion did to the source rows.
type Report struct {
	RowsRead  int            `json:"rows_read"`
	Skipped   []SkippedRow   `json:"skipped"`
	Defaulted map[string]int `json:"defaulted"` // cells replaced by a default, per canonical field
}

// DefaultedTotal returns the number of defaulted cells across all fields.
func (r Report) DefaultedTotal() int {
	n := 0
	for _, c := range r.Defaulted {
		n += c
	}
	return n
}

// String renders a short single-line summary.
func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "read=%d skipped=%d defaulted=%d", r.RowsRead, len(r.Skipped), r.DefaultedTotal())
	for i, s := range r.Skipped {
		if i == reportSkipPreview {
			sb.WriteString(" ...")
			break
		}
		fmt.Fprintf(&sb, " [row %d: %s]", s.Row, s.Reason)
	}
	return sb.String()
}

// RawRow is a normalized source row before enrichment.
type RawRow struct {
	Name            string
	RegionCode      string
	CategoryCode    string
	StartMonth      int
	Visitors        float64
	ForeignVisitors float64
	Row             int
}

// RawTable is the output of ingestion.
type RawTable struct {
	Source                   string
	Encoding                 string
	Rows                     []RawRow
	ForeignVisitorsAvailable bool
	Report                   Report
}

// Dataset is an immutable ordered collection of records plus load metadata.
// It is safe for concurrent use by any number of readers.
type Dataset struct {
	records                  []Record
	source                   string
	encoding                 string
	foreignVisitorsAvailable bool
	report                   Report
}

// FromRecords builds a dataset around a copy of records. Used for views
// that did not come from ingestion, such as a re-read export.
func FromRecords(records []Record, foreignVisitorsAvailable bool) *Dataset {
	return &Dataset{
		records:                  append([]Record(nil), records...),
		foreignVisitorsAvailable: foreignVisitorsAvailable,
		report:                   Report{RowsRead: len(records)},
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns the i-th record in source order.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of all records in source order.
func (d *Dataset) Records() []Record {
	return append([]Record(nil), d.records...)
}

// Each calls fn for every record in source order until fn returns false.
func (d *Dataset) Each(fn func(Record) bool) {
	for i := range d.records {
		if !fn(d.records[i]) {
			return
		}
	}
}

// Source returns the path the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Encoding returns the detected source text encoding.
func (d *Dataset) Encoding() string { return d.encoding }

// ForeignVisitorsAvailable reports whether the source had a foreign-visitor
// column. When false every ForeignVisitors value is a synthesized zero.
func (d *Dataset) ForeignVisitorsAvailable() bool { return d.foreignVisitorsAvailable }

// Report returns the ingestion report.
func (d *Dataset) Report() Report { return d.report }
