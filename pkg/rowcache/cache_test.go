package rowcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type detail struct {
	ID    string
	Calls int32
}

func countingLoader(calls *int32) Loader[detail] {
	return func(ctx context.Context, id string) (detail, error) {
		n := atomic.AddInt32(calls, 1)
		return detail{ID: id, Calls: n}, nil
	}
}

func TestCacheLoadsOnceAndCaches(t *testing.T) {
	var calls int32
	var hits, misses int
	cache, err := New(4, countingLoader(&calls), func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	require.NoError(t, err)

	first, err := cache.Get(context.Background(), "s-1")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "s-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, cache.Cached("s-1"))
	assert.False(t, cache.InFlight("s-1"))
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestCacheIsBounded(t *testing.T) {
	var calls int32
	cache, err := New(2, countingLoader(&calls), nil)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, err := cache.Get(context.Background(), id)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cache.Len())
	assert.False(t, cache.Cached("a"))
	assert.True(t, cache.Cached("c"))
}

func TestCacheRefreshReloads(t *testing.T) {
	var calls int32
	cache, err := New(4, countingLoader(&calls), nil)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "x")
	require.NoError(t, err)
	cache.Refresh("x")
	assert.False(t, cache.Cached("x"))

	got, err := cache.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.Calls)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	cache, err := New(4, func(ctx context.Context, id string) (detail, error) {
		return detail{}, errors.New("upstream down")
	}, nil)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, cache.Cached("x"))
	assert.False(t, cache.InFlight("x"))
}

func TestCacheInFlightIsExclusiveWithCached(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32
	cache, err := New(4, func(ctx context.Context, id string) (detail, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return detail{ID: id}, nil
	}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Get(context.Background(), "row")
		}()
	}
	<-started
	assert.True(t, cache.InFlight("row"))
	assert.False(t, cache.Cached("row"))

	close(release)
	wg.Wait()

	assert.False(t, cache.InFlight("row"))
	assert.True(t, cache.Cached("row"))
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestCachePurgeDetachesInFlightLoads(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	cache, err := New(4, func(ctx context.Context, id string) (detail, error) {
		close(started)
		<-release
		return detail{ID: id}, nil
	}, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Get(context.Background(), "row")
	}()
	<-started
	cache.Purge()
	assert.False(t, cache.InFlight("row"))
	close(release)
	<-done

	assert.False(t, cache.Cached("row"))
}
