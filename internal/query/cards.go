package query

import (
	"sort"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
)

// DefaultCardLimit caps a card list.
const DefaultCardLimit = 50

// Card is the display projection of one record.
type Card struct {
	Name            string  `json:"name"`
	Region          string  `json:"region"`
	Category        string  `json:"category"`
	StartMonth      int     `json:"start_month"`
	Visitors        float64 `json:"visitors"`
	ForeignVisitors float64 `json:"foreign_visitors"`
	SearchURL       string  `json:"search_url"`
	VideoURL        string  `json:"video_url"`
}

// CardList is a capped card projection.
type CardList struct {
	Cards     []Card `json:"cards"`
	Total     int    `json:"total"`
	Truncated bool   `json:"truncated"`
}

// Cards projects records to cards in input order, keeping at most limit.
// A non-positive limit means DefaultCardLimit.
func Cards(records []dataset.Record, lang Language, limit int) CardList {
	if limit <= 0 {
		limit = DefaultCardLimit
	}
	n := min(len(records), limit)
	list := CardList{
		Cards:     make([]Card, n),
		Total:     len(records),
		Truncated: len(records) > limit,
	}
	for i := range n {
		r := records[i]
		list.Cards[i] = Card{
			Name:            lang.Name(r),
			Region:          lang.Region(r),
			Category:        lang.Category(r),
			StartMonth:      r.StartMonth,
			Visitors:        r.Visitors,
			ForeignVisitors: r.ForeignVisitors,
			SearchURL:       r.SearchURL,
			VideoURL:        r.VideoURL,
		}
	}
	return list
}

// Months returns the selectable months.
func Months() []int {
	return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
}

// RegionOptions returns the distinct regions of ds in lang, sorted.
func RegionOptions(ds *dataset.Dataset, lang Language) []string {
	return distinct(ds, lang.Region)
}

// CategoryOptions returns the distinct categories of ds in lang, sorted.
func CategoryOptions(ds *dataset.Dataset, lang Language) []string {
	return distinct(ds, lang.Category)
}

func distinct(ds *dataset.Dataset, get func(dataset.Record) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	ds.Each(func(r dataset.Record) bool {
		v := get(r)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
		return true
	})
	sort.Strings(out)
	return out
}
