// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/dalemusser/stratametrics/internal/app/system/sheets"
	"go.uber.org/zap"
)

// Refresher re-fetches one tab into the cache. sheets.Loader implements it.
type Refresher interface {
	Refresh(ctx context.Context, tab string) sheets.Result
}

// CacheWarmJob re-fetches every tab on schedule so that requests after the
// cache window still find a fresh copy. A failed tab does not stop the others;
// the job reports an error naming the tabs that failed.
func CacheWarmJob(loader Refresher, tabs []string, schedule string, logger *zap.Logger) Job {
	return Job{
		Name:       "sheet-cache-warm",
		Schedule:   schedule,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			var failed []string
			for _, tab := range tabs {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res := loader.Refresh(ctx, tab)
				if res.Status == sheets.StatusError {
					failed = append(failed, tab)
					continue
				}
				logger.Debug("warmed sheet cache",
					zap.String("tab", tab),
					zap.String("status", res.Status.String()))
			}
			if len(failed) > 0 {
				return fmt.Errorf("warm %d of %d tabs failed: %v", len(failed), len(tabs), failed)
			}
			return nil
		},
	}
}

// CachePurgeJob drops expired entries from the sheet cache. MongoDB also
// removes them through its TTL index, but that monitor only runs once a
// minute and the memory cache has no monitor at all.
func CachePurgeJob(cache sheetcache.Cache, interval time.Duration, logger *zap.Logger) Job {
	if interval <= 0 {
		interval = sheetcache.DefaultTTL
	}
	return Job{
		Name:     "sheet-cache-purge",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := cache.Purge(ctx)
			if err != nil {
				return fmt.Errorf("purge sheet cache: %w", err)
			}
			if n > 0 {
				logger.Info("purged expired sheet cache entries", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}
