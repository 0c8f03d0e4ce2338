// Package query implements the filter-and-aggregate layer over a prepared
// festival dataset. Every function is pure: it reads records and returns new
// values without touching the dataset.
package query

import (
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/errors"
)

// Language selects which representation of region, category and name a
// filter compares against and a view displays.
type Language string

// Supported languages.
const (
	KO Language = "KO"
	EN Language = "EN"
)

// ParseLanguage accepts KO or EN in any case. Empty input means KO.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(KO):
		return KO, nil
	case string(EN):
		return EN, nil
	default:
		return "", errors.NewInvalidFilterError("language", "expected KO or EN, got "+s)
	}
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == KO || l == EN
}

// ColumnSet names the columns a language displays.
type ColumnSet struct {
	Region   string `json:"region"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// Columns returns the region, category and name column names for lang.
func Columns(lang Language) ColumnSet {
	if lang == EN {
		return ColumnSet{Region: dataset.FieldRegionEN, Category: dataset.FieldCategoryEN, Name: dataset.FieldNameLocalized}
	}
	return ColumnSet{Region: dataset.FieldRegionCode, Category: dataset.FieldCategoryCode, Name: dataset.FieldName}
}

// Region returns the region value of r in lang.
func (l Language) Region(r dataset.Record) string {
	if l == EN {
		return r.RegionEN
	}
	return r.RegionCode
}

// Category returns the category value of r in lang.
func (l Language) Category(r dataset.Record) string {
	if l == EN {
		return r.CategoryEN
	}
	return r.CategoryCode
}

// Name returns the display name of r in lang.
func (l Language) Name(r dataset.Record) string {
	if l == EN {
		return r.NameLocalized
	}
	return r.Name
}
