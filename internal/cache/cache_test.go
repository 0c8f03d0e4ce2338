package cache_test

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a01094554781-oss/kfestival/internal/cache"
	"github.com/a01094554781-oss/kfestival/internal/dataset"
	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/io"
	"github.com/a01094554781-oss/kfestival/internal/reftable"
)

const twoRows = `festivalname,state,festivaltype,startmonth,visitors in the previous year,foreigner
진해군항제,경남,문화예술,4,"3,000",5
보령머드축제,충남,지역특산물,7,"1,500",5
`

const threeRows = twoRows + "화천산천어축제,강원,자연생태,1,\"1,300\",3\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newStore(t *testing.T, content string) (*cache.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "festival.csv")
	writeFile(t, path, content)
	build := cache.Builder(io.DefaultCSVOptions(), reftable.Default(), dataset.Options{})
	return cache.NewStore(path, build), path
}

func TestStore_Load(t *testing.T) {
	store, path := newStore(t, twoRows)
	assert.Nil(t, store.Current())

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Same(t, snap, store.Current())
	assert.Equal(t, 2, snap.Dataset.Len())
	assert.Equal(t, path, snap.Dataset.Source())
	assert.NotZero(t, snap.Fingerprint)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestStore_Load_MissingFile(t *testing.T) {
	store := cache.NewStore(filepath.Join(t.TempDir(), "nope.csv"), cache.Builder(io.DefaultCSVOptions(), nil, dataset.Options{}))

	snap, err := store.Load(context.Background())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, errors.ErrIngestion)
	assert.Nil(t, store.Current())
}

func TestStore_Reload(t *testing.T) {
	ctx := context.Background()
	store, path := newStore(t, twoRows)
	first, err := store.Load(ctx)
	require.NoError(t, err)

	t.Run("unchanged content is a no-op", func(t *testing.T) {
		snap, swapped, err := store.Reload(ctx)
		require.NoError(t, err)
		assert.False(t, swapped)
		assert.Same(t, first, snap)
	})

	t.Run("changed content swaps", func(t *testing.T) {
		writeFile(t, path, threeRows)
		snap, swapped, err := store.Reload(ctx)
		require.NoError(t, err)
		assert.True(t, swapped)
		assert.Equal(t, 3, snap.Dataset.Len())
		assert.NotEqual(t, first.Generation, snap.Generation)
		assert.NotEqual(t, first.Fingerprint, snap.Fingerprint)
		assert.Same(t, snap, store.Current())

		assert.Equal(t, first.Dataset.At(0).Latitude, snap.Dataset.At(0).Latitude, "seeded jitter is reproducible")
	})

	t.Run("failure keeps previous snapshot", func(t *testing.T) {
		before := store.Current()
		writeFile(t, path, "name,state\nx,y\n")

		snap, swapped, err := store.Reload(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrIngestion)
		assert.False(t, swapped)
		assert.Same(t, before, snap)
		assert.Same(t, before, store.Current())
	})
}

func TestStore_BuildError(t *testing.T) {
	boom := stderrors.New("boom")
	path := filepath.Join(t.TempDir(), "festival.csv")
	writeFile(t, path, twoRows)

	store := cache.NewStore(path, func(context.Context, string, []byte) (*dataset.Dataset, error) {
		return nil, boom
	})
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStore_CanceledContext(t *testing.T) {
	store, _ := newStore(t, twoRows)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	store, path := newStore(t, twoRows)
	_, err := store.Load(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				n := store.Current().Dataset.Len()
				if n != 2 && n != 3 {
					t.Errorf("observed partial dataset of %d rows", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			writeFile(t, path, threeRows)
		} else {
			writeFile(t, path, twoRows)
		}
		_, _, err := store.Reload(ctx)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	store, path := newStore(t, twoRows)
	first, err := store.Load(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := cache.NewWatcher(store, 20*time.Millisecond)
	go func() { done <- w.Serve(ctx) }()

	assert.Equal(t, "dataset-watcher", w.String())

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(threeRows), 0o600)
		return store.Current().Generation != first.Generation
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, 3, store.Current().Dataset.Len())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
