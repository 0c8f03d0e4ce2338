package dataset

import (
	"math/rand/v2"
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/reftable"
)

// Enrichment defaults.
const (
	DefaultSeed             = 42
	DefaultJitter           = 0.04
	DefaultSearchURLPattern = "https://www.google.com/search?q={name}+{region}"
	DefaultVideoURLPattern  = "https://www.youtube.com/results?search_query={name}+Korea+Festival"
)

// Options controls enrichment. The zero value is usable and yields the
// documented defaults.
type Options struct {
	// Translator derives NameLocalized. Nil means the rule translator built
	// from the reference tables.
	Translator Translator
	// Rand supplies coordinate jitter. Nil means a PCG source seeded with Seed.
	Rand *rand.Rand
	// Seed is used only when Rand is nil. Zero means DefaultSeed.
	Seed uint64
	// Jitter is the half-width in degrees of the uniform offset. Zero means
	// DefaultJitter; a negative value disables jitter.
	Jitter float64
	// SearchURLPattern and VideoURLPattern accept {name}, {region} and
	// {category} placeholders.
	SearchURLPattern string
	VideoURLPattern  string
}

// WithDefaults returns a copy of o with unset fields filled in.
func (o Options) WithDefaults(tables *reftable.Tables) Options {
	if o.Translator == nil {
		o.Translator = NewRuleTranslator(tables.NameRules())
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(o.Seed, o.Seed))
	}
	if o.Jitter == 0 {
		o.Jitter = DefaultJitter
	}
	if o.Jitter < 0 {
		o.Jitter = 0
	}
	if o.SearchURLPattern == "" {
		o.SearchURLPattern = DefaultSearchURLPattern
	}
	if o.VideoURLPattern == "" {
		o.VideoURLPattern = DefaultVideoURLPattern
	}
	return o
}

// Enrich derives the prepared dataset from a raw table. Every step is total:
// unmapped region codes keep the code as label and get the default centroid,
// unmapped categories are labelled DefaultCategoryEN, and failed name
// translations fall back to the original name. With equal options the
// result is identical across runs.
func Enrich(raw *RawTable, tables *reftable.Tables, opts Options) *Dataset {
	if tables == nil {
		tables = reftable.Default()
	}
	opts = opts.WithDefaults(tables)
	names := newMemoTranslator(opts.Translator)

	records := make([]Record, len(raw.Rows))
	for i, row := range raw.Rows {
		rec := Record{
			Name:            row.Name,
			RegionCode:      row.RegionCode,
			CategoryCode:    row.CategoryCode,
			StartMonth:      row.StartMonth,
			Visitors:        row.Visitors,
			ForeignVisitors: row.ForeignVisitors,
			Row:             row.Row,
		}

		rec.RegionEN = row.RegionCode
		if en, ok := tables.RegionEN(row.RegionCode); ok {
			rec.RegionEN = en
		}
		rec.CategoryEN = DefaultCategoryEN
		if en, ok := tables.CategoryEN(row.CategoryCode); ok {
			rec.CategoryEN = en
		}
		rec.NameLocalized = names.localize(row.Name)

		c, ok := tables.Centroid(row.RegionCode)
		if !ok {
			c = tables.DefaultCentroid()
		}
		rec.Latitude, rec.Longitude = c.Lat, c.Lon

		rec.SearchURL = expand(opts.SearchURLPattern, rec)
		rec.VideoURL = expand(opts.VideoURLPattern, rec)

		records[i] = rec
	}

	// All latitude offsets are drawn before any longitude offset so a given
	// seed always maps to the same coordinates regardless of row content.
	for i := range records {
		records[i].Latitude += jitter(opts.Rand, opts.Jitter)
	}
	for i := range records {
		records[i].Longitude += jitter(opts.Rand, opts.Jitter)
	}

	return &Dataset{
		records:                  records,
		source:                   raw.Source,
		encoding:                 raw.Encoding,
		foreignVisitorsAvailable: raw.ForeignVisitorsAvailable,
		report:                   raw.Report,
	}
}

func jitter(r *rand.Rand, width float64) float64 {
	if width == 0 {
		return 0
	}
	return (r.Float64()*2 - 1) * width
}

// expand is literal concatenation; no escaping is applied.
func expand(pattern string, rec Record) string {
	return strings.NewReplacer(
		"{name}", rec.Name,
		"{region}", rec.RegionCode,
		"{category}", rec.CategoryCode,
	).Replace(pattern)
}
