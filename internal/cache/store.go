// Package cache holds the process-wide prepared dataset. A snapshot is
// built completely before it is published, so readers never observe a
// partially loaded dataset.
package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/logging"
	"github.com/a01094554781-oss/kfestival/internal/monitoring"
	"github.com/a01094554781-oss/kfestival/internal/reftable"
)

// Snapshot is one immutable generation of the prepared dataset.
type Snapshot struct {
	Dataset     *dataset.Dataset
	Fingerprint uint64
	Generation  uuid.UUID
	LoadedAt    time.Time
}

// BuildFunc turns the raw bytes of the source file into a dataset.
type BuildFunc func(ctx context.Context, source string, data []byte) (*dataset.Dataset, error)

// Builder returns the standard pipeline: decode and normalize with csvOpts,
// then enrich with tables and opts. Every build draws jitter from a fresh
// generator seeded with opts.Seed so that a reload of identical content
// yields identical coordinates.
func Builder(csvOpts io.CSVOptions, tables *reftable.Tables, opts dataset.Options) BuildFunc {
	opts.Rand = nil
	return func(ctx context.Context, source string, data []byte) (*dataset.Dataset, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := io.Decode(source, data, csvOpts)
		if err != nil {
			return nil, err
		}
		return dataset.Enrich(raw, tables, opts), nil
	}
}

// Store publishes snapshots of one source file.
type Store struct {
	path  string
	build BuildFunc

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes builds
}

// NewStore creates an empty store for the file at path.
func NewStore(path string, build BuildFunc) *Store {
	return &Store{path: path, build: build}
}

// Path returns the watched source path.
func (s *Store) Path() string { return s.path }

// Current returns the published snapshot, or nil before the first Load.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Load builds and publishes a snapshot regardless of the current one.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	snap, _, err := s.refresh(ctx, true)
	return snap, err
}

// Reload rebuilds the snapshot if the source content changed. It reports
// whether a new snapshot was published. On failure the previous snapshot
// stays current and the error is returned.
func (s *Store) Reload(ctx context.Context) (*Snapshot, bool, error) {
	return s.refresh(ctx, false)
}

func (s *Store) refresh(ctx context.Context, force bool) (*Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	var next *Snapshot
	err := monitoring.RecordGlobalOperation("load", func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return errors.NewMissingFileError(s.path, err)
		}

		fp := xxhash.Sum64(data)
		if !force && prev != nil && prev.Fingerprint == fp {
			return nil
		}

		ds, err := s.build(ctx, s.path, data)
		if err != nil {
			return err
		}
		next = &Snapshot{
			Dataset:     ds,
			Fingerprint: fp,
			Generation:  uuid.New(),
			LoadedAt:    time.Now(),
		}
		return nil
	})

	switch {
	case err != nil:
		monitoring.RecordReload(monitoring.ReloadFailed)
		logging.Err(err).Str("path", s.path).Msg("dataset load failed, keeping previous snapshot")
		return prev, false, err
	case next == nil:
		monitoring.RecordReload(monitoring.ReloadUnchanged)
		logging.Debug().Str("path", s.path).Msg("dataset unchanged")
		return prev, false, nil
	}

	s.current.Store(next)
	report := next.Dataset.Report()
	monitoring.RecordReload(monitoring.ReloadSwapped)
	monitoring.RecordDataset(next.Dataset.Len(), len(report.Skipped), report.DefaultedTotal(), next.LoadedAt)
	logging.Info().
		Str("path", s.path).
		Str("generation", next.Generation.String()).
		Str("encoding", next.Dataset.Encoding()).
		Int("rows", next.Dataset.Len()).
		Int("skipped", len(report.Skipped)).
		Int("defaulted", report.DefaultedTotal()).
		Bool("foreign_visitors", next.Dataset.ForeignVisitorsAvailable()).
		Msg("dataset loaded")
	return next, true, nil
}
