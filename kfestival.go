// Package kfestival is a guide to Korean regional festivals. It loads the
// public festival dataset once, enriches it for display, and answers
// filter, aggregate and seasonal queries over an immutable snapshot.
//
//	cfg := kfestival.DefaultConfig()
//	cfg.Data.Path = "festival.CSV"
//	guide, err := kfestival.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	winter, err := guide.Recommend(kfestival.FilterState{}, kfestival.Winter)
//
// Serve runs the HTTP API (and the file watcher when enabled) until the
// context is canceled.
package kfestival

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a01094554781-oss/kfestival/internal/api"
	"github.com/a01094554781-oss/kfestival/internal/cache"
	"github.com/a01094554781-oss/kfestival/internal/config"
	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/geo"
	fio "github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/logging"
	"github.com/a01094554781-oss/kfestival/internal/query"
	"github.com/a01094554781-oss/kfestival/internal/reftable"
	"github.com/a01094554781-oss/kfestival/internal/supervisor"
)

type (
	// Config is the guide configuration.
	Config = config.Config
	// Dataset is an immutable prepared dataset.
	Dataset = dataset.Dataset
	// Record is one prepared festival.
	Record = dataset.Record
	// FilterState is the set of active filters.
	FilterState = query.FilterState
	// Language selects display labels.
	Language = query.Language
	// Season is a fixed group of start months.
	Season = query.Season
	// Recommendation is a seasonal query result.
	Recommendation = query.Recommendation
	// KPI is the summary block of a view.
	KPI = query.KPI
	// Node is a group tree node.
	Node = query.Node
	// Dimension is a grouping key.
	Dimension = query.Dimension
	// Metric is a group value.
	Metric = query.Metric
	// CardList is a capped card projection.
	CardList = query.CardList
	// Marker is a map marker.
	Marker = geo.Marker
	// Tables are the reference tables.
	Tables = reftable.Tables
)

// Languages and seasons.
const (
	KO = query.KO
	EN = query.EN

	Spring = query.Spring
	Summer = query.Summer
	Autumn = query.Autumn
	Winter = query.Winter
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.NewConfig()
}

// LoadConfig loads a layered configuration. An empty path searches the
// default locations.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Guide serves queries over the current snapshot of the festival dataset.
// It is safe for concurrent use; a reload never exposes a partial dataset.
type Guide struct {
	cfg    Config
	tables *reftable.Tables
	store  *cache.Store
}

// Open validates cfg, loads the reference tables and ingests the dataset.
// Ingestion failures are returned as *errors.IngestionError.
func Open(ctx context.Context, cfg Config) (*Guide, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tables, err := cfg.Tables()
	if err != nil {
		return nil, err
	}

	build := cache.Builder(cfg.CSVOptions(), tables, cfg.EnrichOptions(tables))
	g := &Guide{cfg: cfg, tables: tables, store: cache.NewStore(cfg.Data.Path, build)}
	if _, err := g.store.Load(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Config returns the effective configuration.
func (g *Guide) Config() Config { return g.cfg }

// Tables returns the reference tables.
func (g *Guide) Tables() *Tables { return g.tables }

// Dataset returns the current dataset.
func (g *Guide) Dataset() *Dataset { return g.store.Current().Dataset }

// Generation identifies the current snapshot.
func (g *Guide) Generation() string { return g.store.Current().Generation.String() }

// Filter validates state and returns the matching records in source order.
func (g *Guide) Filter(state FilterState) ([]Record, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return query.Filter(g.Dataset(), state), nil
}

// Recommend returns the seasonal recommendation under the region and
// category filters of state.
func (g *Guide) Recommend(state FilterState, season Season) (Recommendation, error) {
	if err := state.Validate(); err != nil {
		return Recommendation{}, err
	}
	return query.Recommend(g.Dataset(), state, season), nil
}

// Summary returns the KPI block of records.
func (g *Guide) Summary(records []Record) KPI { return query.Summary(records) }

// Top returns the n records with the most foreign visitors.
func (g *Guide) Top(records []Record, n int) []Record {
	if n <= 0 {
		n = g.cfg.Query.TopN
	}
	return query.TopByForeignVisitors(records, n)
}

// Breakdown groups records along dims in lang.
func (g *Guide) Breakdown(records []Record, lang Language, metric Metric, dims ...Dimension) *Node {
	return query.GroupTree(records, lang, metric, dims...)
}

// Cards projects records to display cards.
func (g *Guide) Cards(records []Record, lang Language, limit int) CardList {
	if limit <= 0 {
		limit = g.cfg.Query.CardLimit
	}
	return query.Cards(records, lang, limit)
}

// Markers projects records to map markers.
func (g *Guide) Markers(records []Record, lang Language) []Marker {
	return geo.Project(records, lang, g.cfg.Query.GeohashPrecision)
}

// Export writes records to w as csv or parquet.
func (g *Guide) Export(w io.Writer, format string, records []Record) error {
	rw, err := fio.NewRecordWriter(format, w, g.cfg.CSVOptions(), g.cfg.ParquetOptions())
	if err != nil {
		return err
	}
	return rw.Write(records)
}

// Reload re-reads the source file. It reports whether the snapshot changed;
// on failure the previous snapshot stays current.
func (g *Guide) Reload(ctx context.Context) (bool, error) {
	_, swapped, err := g.store.Reload(ctx)
	return swapped, err
}

// Handler returns the HTTP API.
func (g *Guide) Handler() http.Handler {
	return api.New(g.store, api.Options{
		Tables:           g.tables,
		Language:         g.cfg.Language(),
		CardLimit:        g.cfg.Query.CardLimit,
		TopN:             g.cfg.Query.TopN,
		GeohashPrecision: g.cfg.Query.GeohashPrecision,
		CSV:              g.cfg.CSVOptions(),
		Parquet:          g.cfg.ParquetOptions(),
	}).Routes()
}

// Serve runs the HTTP API, and the dataset watcher when enabled, until ctx
// is canceled.
func (g *Guide) Serve(ctx context.Context) error {
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: g.cfg.Server.ShutdownTimeout,
	})

	if g.cfg.Data.Watch {
		tree.AddDataService(cache.NewWatcher(g.store, g.cfg.Data.Debounce))
	}

	addr := g.cfg.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      g.Handler(),
		ReadTimeout:  g.cfg.Server.ReadTimeout,
		WriteTimeout: g.cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, addr, g.cfg.Server.ShutdownTimeout))

	// Cancellation is the normal way to stop.
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
