package sheetcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratametrics/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func table(tab string) *models.MetricTable {
	return &models.MetricTable{
		Tab:       tab,
		KeyColumn: models.DefaultKeyColumn,
		HasKey:    true,
		Columns:   []string{models.DefaultKeyColumn, "Ene"},
		Rows:      [][]string{{"Usuarios", "10"}},
	}
}

func TestMemory_GetWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(10 * time.Minute)
	m.SetClock(clock.Now)
	ctx := context.Background()

	put, err := m.Put(ctx, "Alcance", table("Alcance"))
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(10*time.Minute), put.ExpiresAt)

	clock.Advance(9 * time.Minute)
	got, ok, err := m.Get(ctx, "Alcance")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alcance", got.Table.Tab)
	assert.Equal(t, put.FetchedAt, got.FetchedAt)
}

func TestMemory_ExpiresAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(10 * time.Minute)
	m.SetClock(clock.Now)
	ctx := context.Background()

	_, err := m.Put(ctx, "Alcance", table("Alcance"))
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, ok, err := m.Get(ctx, "Alcance")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "expired entry is dropped on read")
}

func TestMemory_MissingTab(t *testing.T) {
	m := NewMemory(0)

	_, ok, err := m.Get(context.Background(), "Uso y Participación")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Purge(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(time.Minute)
	m.SetClock(clock.Now)
	ctx := context.Background()

	_, _ = m.Put(ctx, "A", table("A"))
	clock.Advance(2 * time.Minute)
	_, _ = m.Put(ctx, "B", table("B"))

	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, m.Len())

	_, ok, _ := m.Get(ctx, "B")
	assert.True(t, ok)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Put(ctx, "Alcance", table("Alcance"))
			_, _, _ = m.Get(ctx, "Alcance")
			_, _ = m.Purge(ctx)
		}()
	}
	wg.Wait()

	_, ok, err := m.Get(ctx, "Alcance")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEntry_Fresh(t *testing.T) {
	now := time.Now()
	e := Entry{ExpiresAt: now.Add(time.Second)}

	assert.True(t, e.Fresh(now))
	assert.False(t, e.Fresh(now.Add(time.Second)))
}
