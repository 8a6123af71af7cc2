package sheets

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Source fetches the raw cell grid of one tab. Cells are the formatted text the
// spreadsheet shows, so "12,34%" arrives as typed.
type Source interface {
	// Name identifies the source in logs and health output.
	Name() string
	// Fetch returns all rows of tab, header row first. A tab that does not
	// exist yields an error wrapping ErrUnknownTab.
	Fetch(ctx context.Context, tab string) ([][]string, error)
	// Ping checks that the document is reachable.
	Ping(ctx context.Context) error
}

// MemorySource serves tabs from memory. It backs tests and demo mode.
type MemorySource struct {
	mu    sync.RWMutex
	tabs  map[string][][]string
	err   error
	calls map[string]int
}

// NewMemorySource creates a MemorySource holding tabs.
func NewMemorySource(tabs map[string][][]string) *MemorySource {
	m := &MemorySource{
		tabs:  make(map[string][][]string, len(tabs)),
		calls: make(map[string]int),
	}
	for k, v := range tabs {
		m.tabs[k] = v
	}
	return m
}

// Name implements Source.
func (m *MemorySource) Name() string { return "memory" }

// Set replaces the grid of one tab.
func (m *MemorySource) Set(tab string, grid [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs[tab] = grid
}

// FailWith makes every Fetch and Ping return err until cleared with nil.
func (m *MemorySource) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times tab was fetched.
func (m *MemorySource) Calls(tab string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[tab]
}

// Tabs returns the tab names, sorted.
func (m *MemorySource) Tabs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.tabs))
	for k := range m.tabs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fetch implements Source.
func (m *MemorySource) Fetch(ctx context.Context, tab string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[tab]++
	if m.err != nil {
		return nil, m.err
	}
	grid, ok := m.tabs[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

// Ping implements Source.
func (m *MemorySource) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}
