package sheets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	fetches map[string]int
}

func (m *countingMetrics) CacheHit(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *countingMetrics) CacheMiss(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func (m *countingMetrics) ObserveFetch(_, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetches == nil {
		m.fetches = map[string]int{}
	}
	m.fetches[outcome]++
}

func alcance() [][]string {
	return [][]string{
		{"Métrica", "Ene", "Feb"},
		{"Usuarios totales", "10", "20"},
	}
}

func newTestLoader(src Source, cache sheetcache.Cache, m Metrics) *Loader {
	return NewLoader(src, cache, Options{Metrics: m}, zap.NewNop())
}

func TestLoader_LoadOK(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": alcance()})
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)

	res := l.Load(context.Background(), "Alcance")

	require.Equal(t, StatusOK, res.Status)
	assert.NoError(t, res.Err)
	assert.False(t, res.Cached)
	assert.Equal(t, []string{"Métrica", "Ene", "Feb"}, res.Table.Columns)
}

func TestLoader_EmptyIsNotFailure(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": {{"Métrica", "Ene"}}})
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)

	res := l.Load(context.Background(), "Alcance")

	assert.Equal(t, StatusEmpty, res.Status)
	assert.ErrorIs(t, res.Err, ErrEmpty)
	assert.NotErrorIs(t, res.Err, ErrLoad)
	assert.True(t, res.Table.IsEmpty())
}

func TestLoader_UnknownTab(t *testing.T) {
	src := NewMemorySource(nil)
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)

	res := l.Load(context.Background(), "Nope")

	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrLoad)
	assert.ErrorIs(t, res.Err, ErrUnknownTab)
	assert.NotNil(t, res.Table)
}

func TestLoader_CachesWithinWindow(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": alcance()})
	cache := sheetcache.NewMemory(10 * time.Minute)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })
	m := &countingMetrics{}
	l := newTestLoader(src, cache, m)
	ctx := context.Background()

	first := l.Load(ctx, "Alcance")
	src.Set("Alcance", [][]string{{"Métrica", "Ene"}, {"Otra", "1"}})
	second := l.Load(ctx, "Alcance")

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, "Usuarios totales", second.Table.Rows[0][0], "source change is not seen inside the window")
	assert.Equal(t, 1, src.Calls("Alcance"))
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)

	now = now.Add(10 * time.Minute)
	third := l.Load(ctx, "Alcance")

	assert.False(t, third.Cached)
	assert.Equal(t, "Otra", third.Table.Rows[0][0])
	assert.Equal(t, 2, src.Calls("Alcance"))
}

func TestLoader_FailuresAreNotCached(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": alcance()})
	src.FailWith(errors.New("network down"))
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)
	ctx := context.Background()

	res := l.Load(ctx, "Alcance")
	require.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Err.Error(), "network down")

	src.FailWith(nil)
	res = l.Load(ctx, "Alcance")

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 2, src.Calls("Alcance"))
}

func TestLoader_EmptyIsCached(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": {{"Métrica"}}})
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)
	ctx := context.Background()

	_ = l.Load(ctx, "Alcance")
	res := l.Load(ctx, "Alcance")

	assert.Equal(t, StatusEmpty, res.Status)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, src.Calls("Alcance"))
}

func TestLoader_DuplicateHeaderIsLoadError(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": {{"Métrica", "Ene", "Ene"}, {"x", "1", "2"}}})
	m := &countingMetrics{}
	l := newTestLoader(src, sheetcache.NewMemory(0), m)

	res := l.Load(context.Background(), "Alcance")

	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrDuplicateHeader)
	assert.Equal(t, 1, m.fetches["error"])
}

func TestLoader_Refresh(t *testing.T) {
	src := NewMemorySource(map[string][][]string{"Alcance": alcance()})
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)
	ctx := context.Background()

	_ = l.Load(ctx, "Alcance")
	src.Set("Alcance", [][]string{{"Métrica", "Ene"}, {"Nueva", "1"}})
	_ = l.Refresh(ctx, "Alcance")
	res := l.Load(ctx, "Alcance")

	assert.True(t, res.Cached)
	assert.Equal(t, "Nueva", res.Table.Rows[0][0])
}

// blockingSource releases fetches only when told to, so concurrent loads pile
// up on the same miss.
type blockingSource struct {
	*MemorySource
	release chan struct{}
}

func (b *blockingSource) Fetch(ctx context.Context, tab string) ([][]string, error) {
	<-b.release
	return b.MemorySource.Fetch(ctx, tab)
}

func TestLoader_ConcurrentMissesShareFetch(t *testing.T) {
	src := &blockingSource{
		MemorySource: NewMemorySource(map[string][][]string{"Alcance": alcance()}),
		release:      make(chan struct{}),
	}
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)

	const n = 8
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Load(context.Background(), "Alcance")
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, StatusOK, r.Status)
	}
	assert.LessOrEqual(t, src.Calls("Alcance"), 2)
}

func TestLoader_CancelledCaller(t *testing.T) {
	src := &blockingSource{
		MemorySource: NewMemorySource(map[string][][]string{"Alcance": alcance()}),
		release:      make(chan struct{}),
	}
	l := newTestLoader(src, sheetcache.NewMemory(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := l.Load(ctx, "Alcance")
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)

	close(src.release)
	// The shared fetch still completes and fills the cache.
	assert.Eventually(t, func() bool {
		return l.Load(context.Background(), "Alcance").Cached
	}, time.Second, 10*time.Millisecond)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "empty", StatusEmpty.String())
	assert.Equal(t, "error", StatusError.String())
}
