package tasks_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"github.com/dalemusser/stratametrics/internal/app/system/tasks"
	"go.uber.org/zap"
)

func TestCacheWarmJob(t *testing.T) {
	src := sheets.NewMemorySource(map[string][][]string{
		"Alcance": {{"Métrica", "Ene"}, {"Usuarios", "1"}},
		"Uso":     {{"Métrica"}},
	})
	cache := sheetcache.NewMemory(time.Minute)
	loader := sheets.NewLoader(src, cache, sheets.Options{}, zap.NewNop())

	job := tasks.CacheWarmJob(loader, []string{"Alcance", "Uso"}, "*/5 * * * *", zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if cache.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", cache.Len())
	}
	if res := loader.Load(context.Background(), "Alcance"); !res.Cached {
		t.Error("warmed tab should be served from cache")
	}
}

func TestCacheWarmJob_ReportsFailedTabs(t *testing.T) {
	src := sheets.NewMemorySource(map[string][][]string{
		"Alcance": {{"Métrica", "Ene"}, {"Usuarios", "1"}},
	})
	loader := sheets.NewLoader(src, sheetcache.NewMemory(0), sheets.Options{}, zap.NewNop())

	job := tasks.CacheWarmJob(loader, []string{"Alcance", "Missing"}, "@every 10m", zap.NewNop())
	err := job.Run(context.Background())

	if err == nil || !strings.Contains(err.Error(), "Missing") {
		t.Fatalf("Run() error = %v, want failure naming the missing tab", err)
	}
	if src.Calls("Alcance") != 1 {
		t.Error("a failing tab must not stop the others")
	}
}

type failingCache struct{ sheetcache.Cache }

func (failingCache) Purge(context.Context) (int64, error) { return 0, errors.New("db down") }

func TestCachePurgeJob(t *testing.T) {
	cache := sheetcache.NewMemory(time.Millisecond)
	_, _ = cache.Put(context.Background(), "Alcance", nil)
	time.Sleep(5 * time.Millisecond)

	job := tasks.CachePurgeJob(cache, 0, zap.NewNop())
	if job.Interval != sheetcache.DefaultTTL {
		t.Errorf("Interval = %v, want %v", job.Interval, sheetcache.DefaultTTL)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache entries = %d, want 0", cache.Len())
	}

	bad := tasks.CachePurgeJob(failingCache{}, time.Minute, zap.NewNop())
	if err := bad.Run(context.Background()); err == nil {
		t.Error("Run() should surface purge errors")
	}
}
