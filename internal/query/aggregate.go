package query

import (
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
)

// Number is any value Sum can accumulate.
type Number interface {
	constraints.Integer | constraints.Float
}

// Count returns the number of records.
func Count(records []dataset.Record) int {
	return len(records)
}

// Sum adds key(r) over records.
func Sum[T Number](records []dataset.Record, key func(dataset.Record) T) T {
	var total T
	for _, r := range records {
		total += key(r)
	}
	return total
}

// Visitors is the visitor-count key.
func Visitors(r dataset.Record) float64 { return r.Visitors }

// ForeignVisitors is the foreign-visitor-count key.
func ForeignVisitors(r dataset.Record) float64 { return r.ForeignVisitors }

// SumVisitors returns the total visitor count.
func SumVisitors(records []dataset.Record) float64 {
	return Sum(records, Visitors)
}

// SumForeignVisitors returns the total foreign visitor count.
func SumForeignVisitors(records []dataset.Record) float64 {
	return Sum(records, ForeignVisitors)
}

// TopN returns up to n records ordered by key descending. Ties keep input
// order. records is not modified.
func TopN(records []dataset.Record, n int, key func(dataset.Record) float64) []dataset.Record {
	if n <= 0 || len(records) == 0 {
		return []dataset.Record{}
	}
	sorted := append([]dataset.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// TopByForeignVisitors is TopN keyed on foreign visitors.
func TopByForeignVisitors(records []dataset.Record, n int) []dataset.Record {
	return TopN(records, n, ForeignVisitors)
}

// KPI is the headline block shown above a filtered view.
type KPI struct {
	Count           int     `json:"count"`
	Visitors        float64 `json:"visitors"`
	ForeignVisitors float64 `json:"foreign_visitors"`
}

// Summary computes the KPI block of records.
func Summary(records []dataset.Record) KPI {
	return KPI{
		Count:           Count(records),
		Visitors:        SumVisitors(records),
		ForeignVisitors: SumForeignVisitors(records),
	}
}
