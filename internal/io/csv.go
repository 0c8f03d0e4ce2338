package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/logging"
)

// column describes one canonical field and the header spellings accepted for it.
type column struct {
	name     string
	aliases  []string
	required bool
}

// schema lists the source columns in resolution order. Aliases are matched
// after trimming and lower-casing the header.
var schema = []column{
	{name: dataset.FieldName, aliases: []string{"festivalname", "name"}, required: true},
	{name: dataset.FieldRegionCode, aliases: []string{"state", "region_code", "region"}, required: true},
	{name: dataset.FieldCategoryCode, aliases: []string{"festivaltype", "category_code", "category"}, required: true},
	{name: dataset.FieldStartMonth, aliases: []string{"startmonth", "start_month", "month"}, required: true},
	{name: dataset.FieldVisitors, aliases: []string{"visitors in the previous year", "visitors"}, required: true},
	{name: dataset.FieldForeignVisitors, aliases: []string{"foreigner", "foreign_visitors"}},
}

// Load reads the source file at path and normalizes it into a raw table.
// Any failure is an *errors.IngestionError and no table is returned.
func Load(path string, options CSVOptions) (*dataset.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewMissingFileError(path, err)
	}
	return Decode(path, data, options)
}

// Decode normalizes the raw bytes of a source file. source is used only for
// error messages and table metadata.
func Decode(source string, data []byte, options CSVOptions) (*dataset.RawTable, error) {
	text, encoding, err := decodeText(source, data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	if options.Delimiter != 0 {
		reader.Comma = options.Delimiter
	}
	reader.Comment = options.Comment
	reader.LazyQuotes = options.LazyQuotes
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParseError(source, err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParseError(source, fmt.Errorf("no header row"))
	}

	index, err := resolveColumns(source, rows[0])
	if err != nil {
		return nil, err
	}

	table := &dataset.RawTable{
		Source:   source,
		Encoding: encoding,
		Rows:     make([]dataset.RawRow, 0, len(rows)-1),
		Report: dataset.Report{
			Defaulted: make(map[string]int),
		},
	}
	foreignIdx, hasForeign := index[dataset.FieldForeignVisitors]
	table.ForeignVisitorsAvailable = hasForeign

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		table.Report.RowsRead++

		cell := func(field string) string {
			idx, ok := index[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return normalizeCell(row[idx])
		}

		raw := dataset.RawRow{
			Name:         cell(dataset.FieldName),
			RegionCode:   cell(dataset.FieldRegionCode),
			CategoryCode: cell(dataset.FieldCategoryCode),
			Row:          i,
		}

		month, ok := ParseMonth(cell(dataset.FieldStartMonth))
		switch {
		case raw.Name == "":
			skip(table, i, "blank name")
			continue
		case raw.RegionCode == "":
			skip(table, i, "blank region_code")
			continue
		case !ok:
			skip(table, i, fmt.Sprintf("invalid start_month %q", cell(dataset.FieldStartMonth)))
			continue
		}
		raw.StartMonth = month

		if raw.CategoryCode == "" {
			raw.CategoryCode = dataset.DefaultCategoryCode
			table.Report.Defaulted[dataset.FieldCategoryCode]++
		}

		var clean bool
		if raw.Visitors, clean = ParseNumber(cell(dataset.FieldVisitors)); !clean {
			table.Report.Defaulted[dataset.FieldVisitors]++
		}
		if hasForeign {
			v := ""
			if foreignIdx < len(row) {
				v = normalizeCell(row[foreignIdx])
			}
			if raw.ForeignVisitors, clean = ParseNumber(v); !clean {
				table.Report.Defaulted[dataset.FieldForeignVisitors]++
			}
		}

		table.Rows = append(table.Rows, raw)
	}

	logging.Debug().
		Str("source", source).
		Str("encoding", encoding).
		Int("rows", len(table.Rows)).
		Int("skipped", len(table.Report.Skipped)).
		Int("defaulted", table.Report.DefaultedTotal()).
		Bool("foreign_visitors", hasForeign).
		Msg("source decoded")

	return table, nil
}

// resolveColumns maps canonical field names to header positions.
func resolveColumns(source string, header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.Join(strings.Fields(normalizeCell(h)), " "))
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	index := make(map[string]int, len(schema))
	for _, col := range schema {
		for _, alias := range col.aliases {
			if pos, ok := positions[alias]; ok {
				index[col.name] = pos
				break
			}
		}
		if _, ok := index[col.name]; !ok && col.required {
			return nil, errors.NewMissingColumnError(source, col.name)
		}
	}
	return index, nil
}

func skip(table *dataset.RawTable, row int, reason string) {
	table.Report.Skipped = append(table.Report.Skipped, dataset.SkippedRow{Row: row, Reason: reason})
	logging.Warn().Str("source", table.Source).Int("row", row).Str("reason", reason).Msg("row skipped")
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
