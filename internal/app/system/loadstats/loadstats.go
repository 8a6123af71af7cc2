// Package loadstats exposes Prometheus metrics for sheet loads, the sheet
// cache and dashboard requests.
package loadstats

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stratametrics"

// Recorder holds the collectors. It implements sheets.Metrics.
type Recorder struct {
	reg *prometheus.Registry

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	fetchTime   *prometheus.HistogramVec
	requests    *prometheus.CounterVec
	reqTime     *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheet_cache",
			Name:      "hits_total",
			Help:      "Sheet loads served from the cache.",
		}, []string{"tab"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheet_cache",
			Name:      "misses_total",
			Help:      "Sheet loads that had to fetch from the source.",
		}, []string{"tab"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheet",
			Name:      "fetches_total",
			Help:      "Source fetches by outcome (ok, empty, error).",
		}, []string{"tab", "outcome"}),
		fetchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sheet",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching one tab from the source.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"tab"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		reqTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.cacheHits, r.cacheMisses, r.fetches, r.fetchTime, r.requests, r.reqTime,
	)
	return r
}

// Registry returns the registry holding all collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// CacheHit counts a load served from the cache.
func (r *Recorder) CacheHit(tab string) {
	r.cacheHits.WithLabelValues(tab).Inc()
}

// CacheMiss counts a load that went to the source.
func (r *Recorder) CacheMiss(tab string) {
	r.cacheMisses.WithLabelValues(tab).Inc()
}

// ObserveFetch records one source fetch.
func (r *Recorder) ObserveFetch(tab, outcome string, d time.Duration) {
	r.fetches.WithLabelValues(tab, outcome).Inc()
	r.fetchTime.WithLabelValues(tab).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Middleware records request count and latency, labelled by the chi route
// pattern so path parameters do not explode label cardinality.
// A nil recorder passes requests through.
func Middleware(r *Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if r == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, req)

			route := "unmatched"
			if rc := chi.RouteContext(req.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			r.requests.WithLabelValues(route, strconv.Itoa(wrapped.statusCode)).Inc()
			r.reqTime.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

// responseWrapper captures the status code.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher.
func (rw *responseWrapper) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
