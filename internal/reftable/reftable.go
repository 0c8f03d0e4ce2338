// Package reftable holds the static reference tables used to localize and
// place festival records: region names, category names, region centroids and
// the substring rules of the offline name translator.
package reftable

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embedded []byte

// Centroid is an approximate region center in degrees.
type Centroid struct {
	Lat float64
	Lon float64
}

// Region maps a source-language region code to its English label and centroid.
type Region struct {
	Code     string
	EN       string
	Centroid Centroid
}

// Category maps a source-language category code to its English label.
type Category struct {
	Code string
	EN   string
}

// NameRule is a literal substring replacement.
type NameRule struct {
	From string
	To   string
}

// Tables is an immutable set of reference tables. All methods are safe for
// concurrent use.
type Tables struct {
	regions    []Region
	categories []Category
	rules      []NameRule
	fallback   Centroid

	regionIdx   map[string]int
	categoryIdx map[string]int
}

type fileFormat struct {
	DefaultCentroid []float64 `yaml:"default_centroid"`
	Regions         []struct {
		Code     string    `yaml:"code"`
		EN       string    `yaml:"en"`
		Centroid []float64 `yaml:"centroid"`
	} `yaml:"regions"`
	Categories []struct {
		Code string `yaml:"code"`
		EN   string `yaml:"en"`
	} `yaml:"categories"`
	NameRules []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"name_rules"`
}

var defaultTables = sync.OnceValue(func() *Tables {
	t, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("reftable: embedded tables are invalid: %v", err))
	}
	return t
})

// Default returns the process-wide tables compiled into the binary.
func Default() *Tables {
	return defaultTables()
}

// LoadFile reads tables from a YAML file with the same layout as the embedded one.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference tables: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML reference tables.
func Parse(data []byte) (*Tables, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reference tables: %w", err)
	}

	t := &Tables{
		regionIdx:   make(map[string]int, len(f.Regions)),
		categoryIdx: make(map[string]int, len(f.Categories)),
		fallback:    Centroid{Lat: 36.5, Lon: 127.5},
	}

	if f.DefaultCentroid != nil {
		c, err := toCentroid(f.DefaultCentroid)
		if err != nil {
			return nil, fmt.Errorf("default_centroid: %w", err)
		}
		t.fallback = c
	}

	for _, r := range f.Regions {
		if r.Code == "" {
			return nil, fmt.Errorf("region with empty code")
		}
		if _, dup := t.regionIdx[r.Code]; dup {
			return nil, fmt.Errorf("duplicate region code %q", r.Code)
		}
		c, err := toCentroid(r.Centroid)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", r.Code, err)
		}
		t.regionIdx[r.Code] = len(t.regions)
		t.regions = append(t.regions, Region{Code: r.Code, EN: r.EN, Centroid: c})
	}

	for _, c := range f.Categories {
		if c.Code == "" {
			return nil, fmt.Errorf("category with empty code")
		}
		if _, dup := t.categoryIdx[c.Code]; dup {
			return nil, fmt.Errorf("duplicate category code %q", c.Code)
		}
		t.categoryIdx[c.Code] = len(t.categories)
		t.categories = append(t.categories, Category{Code: c.Code, EN: c.EN})
	}

	for _, nr := range f.NameRules {
		if nr.From == "" {
			return nil, fmt.Errorf("name rule with empty pattern")
		}
		t.rules = append(t.rules, NameRule{From: nr.From, To: nr.To})
	}

	return t, nil
}

func toCentroid(v []float64) (Centroid, error) {
	if len(v) != 2 {
		return Centroid{}, fmt.Errorf("centroid needs [lat, lon], got %d values", len(v))
	}
	c := Centroid{Lat: v[0], Lon: v[1]}
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.Abs(c.Lat) > 90 || math.Abs(c.Lon) > 180 {
		return Centroid{}, fmt.Errorf("centroid %v out of range", v)
	}
	return c, nil
}

// RegionEN returns the English label of a region code.
func (t *Tables) RegionEN(code string) (string, bool) {
	i, ok := t.regionIdx[code]
	if !ok {
		return "", false
	}
	return t.regions[i].EN, true
}

// CategoryEN returns the English label of a category code.
func (t *Tables) CategoryEN(code string) (string, bool) {
	i, ok := t.categoryIdx[code]
	if !ok {
		return "", false
	}
	return t.categories[i].EN, true
}

// Centroid returns the centroid of a region code.
func (t *Tables) Centroid(code string) (Centroid, bool) {
	i, ok := t.regionIdx[code]
	if !ok {
		return Centroid{}, false
	}
	return t.regions[i].Centroid, true
}

// DefaultCentroid is used for region codes without a known centroid.
func (t *Tables) DefaultCentroid() Centroid {
	return t.fallback
}

// NameRules returns the translator rules in application order.
func (t *Tables) NameRules() []NameRule {
	out := make([]NameRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Regions returns all regions in table order.
func (t *Tables) Regions() []Region {
	out := make([]Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// Categories returns all categories in table order.
func (t *Tables) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// RegionCodes returns the known region codes, sorted.
func (t *Tables) RegionCodes() []string {
	codes := make([]string, 0, len(t.regions))
	for _, r := range t.regions {
		codes = append(codes, r.Code)
	}
	sort.Strings(codes)
	return codes
}

// CategoryCodes returns the known category codes, sorted.
func (t *Tables) CategoryCodes() []string {
	codes := make([]string, 0, len(t.categories))
	for _, c := range t.categories {
		codes = append(codes, c.Code)
	}
	sort.Strings(codes)
	return codes
}

// NearestRegion returns the region whose centroid has the smallest
// great-circle distance to the given point, and that distance in kilometers.
func (t *Tables) NearestRegion(lat, lon float64) (Region, float64, bool) {
	if len(t.regions) == 0 {
		return Region{}, 0, false
	}
	p := s2.LatLngFromDegrees(lat, lon)
	best := -1
	var bestAngle float64
	for i, r := range t.regions {
		d := p.Distance(s2.LatLngFromDegrees(r.Centroid.Lat, r.Centroid.Lon)).Radians()
		if best < 0 || d < bestAngle {
			best, bestAngle = i, d
		}
	}
	return t.regions[best], bestAngle * earthRadiusKm, true
}

const earthRadiusKm = 6371.0088
