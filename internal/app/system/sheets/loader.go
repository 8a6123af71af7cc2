package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratametrics/internal/app/store/sheetcache"
	"github.com/dalemusser/stratametrics/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Status classifies a load result.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Result is the outcome of loading one tab. Table is never nil; on error it is
// an empty table for the tab.
type Result struct {
	Tab    string
	Table  *models.MetricTable
	Status Status
	// Err wraps ErrLoad when Status is StatusError, and is ErrEmpty when
	// Status is StatusEmpty.
	Err    error
	Cached bool
}

// Metrics receives load and cache events. loadstats.Recorder implements it.
type Metrics interface {
	CacheHit(tab string)
	CacheMiss(tab string)
	ObserveFetch(tab, outcome string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) CacheHit(string)                             {}
func (nopMetrics) CacheMiss(string)                            {}
func (nopMetrics) ObserveFetch(string, string, time.Duration) {}

// Options configures a Loader.
type Options struct {
	// KeyColumn is the exact header of the metric name column.
	KeyColumn string
	// FetchTimeout bounds one remote fetch. Zero means 30s.
	FetchTimeout time.Duration
	Metrics      Metrics
}

// Loader fetches tabs through a cache. Successful and empty results are
// cached for the cache's window; failures are not, so the next request
// retries. Concurrent misses for the same tab share one fetch.
type Loader struct {
	src     Source
	cache   sheetcache.Cache
	key     string
	timeout time.Duration
	metrics Metrics
	logger  *zap.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewLoader creates a Loader.
func NewLoader(src Source, cache sheetcache.Cache, opts Options, logger *zap.Logger) *Loader {
	if opts.KeyColumn == "" {
		opts.KeyColumn = models.DefaultKeyColumn
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		src:     src,
		cache:   cache,
		key:     opts.KeyColumn,
		timeout: opts.FetchTimeout,
		metrics: opts.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// KeyColumn returns the configured metric name header.
func (l *Loader) KeyColumn() string { return l.key }

// Source returns the underlying source.
func (l *Loader) Source() Source { return l.src }

// Load returns the table for tab, from cache when fresh.
func (l *Loader) Load(ctx context.Context, tab string) Result {
	entry, ok, err := l.cache.Get(ctx, tab)
	if err != nil {
		l.logger.Warn("sheet cache read failed", zap.String("tab", tab), zap.Error(err))
	}
	if ok {
		l.metrics.CacheHit(tab)
		return classify(tab, entry.Table, true)
	}
	l.metrics.CacheMiss(tab)
	return l.fetch(ctx, tab)
}

// Refresh fetches tab from the source and replaces the cached copy, ignoring
// any fresh entry.
func (l *Loader) Refresh(ctx context.Context, tab string) Result {
	return l.fetch(ctx, tab)
}

func (l *Loader) fetch(ctx context.Context, tab string) Result {
	ch := l.group.DoChan(tab, func() (any, error) {
		// Detached from the caller so one cancelled request does not fail
		// the others waiting on the same fetch.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		return l.fetchOnce(fctx, tab)
	})

	select {
	case <-ctx.Done():
		return failed(tab, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return failed(tab, res.Err)
		}
		return classify(tab, res.Val.(*models.MetricTable), false)
	}
}

func (l *Loader) fetchOnce(ctx context.Context, tab string) (*models.MetricTable, error) {
	start := time.Now()
	grid, err := l.src.Fetch(ctx, tab)
	if err == nil {
		var t *models.MetricTable
		t, err = BuildTable(tab, l.key, grid, l.now().UTC())
		if err == nil {
			l.observe(tab, t, start)
			if _, perr := l.cache.Put(ctx, tab, t); perr != nil {
				l.logger.Warn("sheet cache write failed", zap.String("tab", tab), zap.Error(perr))
			}
			return t, nil
		}
	}

	l.metrics.ObserveFetch(tab, StatusError.String(), time.Since(start))
	l.logger.Error("sheet load failed",
		zap.String("tab", tab),
		zap.String("source", l.src.Name()),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return nil, err
}

func (l *Loader) observe(tab string, t *models.MetricTable, start time.Time) {
	status := StatusOK
	if t.IsEmpty() {
		status = StatusEmpty
	}
	l.metrics.ObserveFetch(tab, status.String(), time.Since(start))
	l.logger.Info("sheet loaded",
		zap.String("tab", tab),
		zap.String("source", l.src.Name()),
		zap.Int("rows", len(t.Rows)),
		zap.Int("columns", len(t.Columns)),
		zap.Bool("has_key", t.HasKey),
		zap.Duration("took", time.Since(start)))
}

func classify(tab string, t *models.MetricTable, cached bool) Result {
	if t.IsEmpty() {
		return Result{Tab: tab, Table: t, Status: StatusEmpty, Err: ErrEmpty, Cached: cached}
	}
	return Result{Tab: tab, Table: t, Status: StatusOK, Cached: cached}
}

func failed(tab string, err error) Result {
	if !errors.Is(err, ErrLoad) {
		err = fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return Result{
		Tab:    tab,
		Table:  &models.MetricTable{Tab: tab, Columns: []string{}, Rows: [][]string{}},
		Status: StatusError,
		Err:    err,
	}
}
