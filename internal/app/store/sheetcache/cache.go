// internal/app/store/sheetcache/cache.go
//
// Package sheetcache holds fetched sheet tabs for a fixed time window.
// Entries are keyed by tab name and expire on time only; a change in the source
// spreadsheet is not noticed until the entry expires.
package sheetcache

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/stratametrics/internal/domain/models"
)

// DefaultTTL is how long a fetched tab is served from the cache.
const DefaultTTL = 10 * time.Minute

// Entry is one cached tab.
type Entry struct {
	Tab       string
	Table     *models.MetricTable
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry is still inside its window at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Cache is a read-through, expiry-only table cache.
type Cache interface {
	// Get returns the entry for tab when one exists and has not expired.
	Get(ctx context.Context, tab string) (Entry, bool, error)
	// Put stores table under tab until now+TTL.
	Put(ctx context.Context, tab string, table *models.MetricTable) (Entry, error)
	// Purge removes expired entries and reports how many were removed.
	Purge(ctx context.Context) (int64, error)
}

// Memory is an in-process Cache. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

// NewMemory creates an in-memory cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

// SetClock replaces the time source (tests).
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, tab string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[tab]
	if !ok {
		return Entry{}, false, nil
	}
	if !e.Fresh(m.now()) {
		delete(m.entries, tab)
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put implements Cache.
func (m *Memory) Put(_ context.Context, tab string, table *models.MetricTable) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e := Entry{
		Tab:       tab,
		Table:     table,
		FetchedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.entries[tab] = e
	return e, nil
}

// Purge implements Cache.
func (m *Memory) Purge(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for tab, e := range m.entries {
		if !e.Fresh(now) {
			delete(m.entries, tab)
			n++
		}
	}
	return n, nil
}

// Len returns the number of entries held, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
