package query

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/validation"
)

// FilterState is the set of active predicates for one interaction. An empty
// set leaves its dimension unconstrained; an empty Search matches every name.
type FilterState struct {
	Months     []int    `json:"months" validate:"dive,min=1,max=12"`
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Search     string   `json:"search" validate:"max=200"`
	Language   Language `json:"language" validate:"omitempty,oneof=KO EN"`
}

// Validate rejects months outside 1..12, unknown languages and overlong
// search terms.
func (s FilterState) Validate() error {
	if verr := validation.ValidateStruct(s); verr != nil {
		return verr.QueryError("filter")
	}
	return nil
}

func (s FilterState) lang() Language {
	if s.Language == "" {
		return KO
	}
	return s.Language
}

// Predicates returns the conjuncts of s, omitting unconstrained ones.
func (s FilterState) Predicates() []Predicate {
	lang := s.lang()
	var preds []Predicate
	if len(s.Months) > 0 {
		preds = append(preds, MonthIn(s.Months...))
	}
	if len(s.Regions) > 0 {
		preds = append(preds, RegionIn(lang, s.Regions...))
	}
	if len(s.Categories) > 0 {
		preds = append(preds, CategoryIn(lang, s.Categories...))
	}
	if strings.TrimSpace(s.Search) != "" {
		preds = append(preds, NameContains(s.Search))
	}
	return preds
}

// Predicate is a single composable record test.
type Predicate interface {
	Match(r dataset.Record) bool
	String() string
}

type monthIn struct{ months [13]bool }

// MonthIn matches records whose start month is one of months.
func MonthIn(months ...int) Predicate {
	p := &monthIn{}
	for _, m := range months {
		if m >= 1 && m <= 12 {
			p.months[m] = true
		}
	}
	return p
}

func (p *monthIn) Match(r dataset.Record) bool {
	return r.StartMonth >= 1 && r.StartMonth <= 12 && p.months[r.StartMonth]
}

func (p *monthIn) String() string {
	var parts []string
	for m := 1; m <= 12; m++ {
		if p.months[m] {
			parts = append(parts, strconv.Itoa(m))
		}
	}
	return "month in [" + strings.Join(parts, ",") + "]"
}

type setIn struct {
	label string
	get   func(dataset.Record) string
	set   map[string]struct{}
}

func newSetIn(label string, get func(dataset.Record) string, values []string) *setIn {
	p := &setIn{label: label, get: get, set: make(map[string]struct{}, len(values))}
	for _, v := range values {
		p.set[v] = struct{}{}
	}
	return p
}

func (p *setIn) Match(r dataset.Record) bool {
	_, ok := p.set[p.get(r)]
	return ok
}

func (p *setIn) String() string {
	keys := make([]string, 0, len(p.set))
	for k := range p.set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return p.label + " in [" + strings.Join(keys, ",") + "]"
}

// RegionIn matches records whose region, in lang, is one of regions.
func RegionIn(lang Language, regions ...string) Predicate {
	return newSetIn(Columns(lang).Region, lang.Region, regions)
}

// CategoryIn matches records whose category, in lang, is one of categories.
func CategoryIn(lang Language, categories ...string) Predicate {
	return newSetIn(Columns(lang).Category, lang.Category, categories)
}

type nameContains struct {
	query  string
	folded string
}

// NameContains matches records whose original or localized name contains
// query under Unicode case folding.
func NameContains(query string) Predicate {
	q := strings.TrimSpace(query)
	return &nameContains{query: q, folded: cases.Fold().String(q)}
}

func (p *nameContains) Match(r dataset.Record) bool {
	// A Caser is stateful, so each call gets its own.
	fold := cases.Fold()
	return strings.Contains(fold.String(r.Name), p.folded) ||
		strings.Contains(fold.String(r.NameLocalized), p.folded)
}

func (p *nameContains) String() string {
	return fmt.Sprintf("name contains %q", p.query)
}

type and []Predicate

// And matches records accepted by every predicate. And() matches everything.
func And(preds ...Predicate) Predicate {
	return and(slices.Clone(preds))
}

func (a and) Match(r dataset.Record) bool {
	for _, p := range a {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

func (a and) String() string {
	if len(a) == 0 {
		return "true"
	}
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// Where returns the records accepted by every predicate, in input order.
func Where(records []dataset.Record, preds ...Predicate) []dataset.Record {
	p := And(preds...)
	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Filter returns the dataset records matching state, in source order. An
// empty result is an empty, non-nil slice.
func Filter(ds *dataset.Dataset, state FilterState) []dataset.Record {
	p := And(state.Predicates()...)
	out := make([]dataset.Record, 0)
	ds.Each(func(r dataset.Record) bool {
		if p.Match(r) {
			out = append(out, r)
		}
		return true
	})
	return out
}
