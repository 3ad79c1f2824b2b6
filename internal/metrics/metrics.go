// Package metrics exposes page-cache and transition counters for Prometheus.
// A nil *Metrics is valid and records nothing, so the widget can be embedded
// without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	CacheRemaps    prometheus.Counter
	LivePages      prometheus.Gauge
	Transitions    *prometheus.CounterVec
	Selections     *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "calpicker_page_cache_hits_total",
			Help: "Page lookups served from the cache.",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "calpicker_page_cache_misses_total",
			Help: "Page lookups that built a new page.",
		}),
		CacheEvictions: f.NewCounter(prometheus.CounterOpts{
			Name: "calpicker_page_cache_evictions_total",
			Help: "Pages dropped from the cache.",
		}),
		CacheRemaps: f.NewCounter(prometheus.CounterOpts{
			Name: "calpicker_page_cache_remaps_total",
			Help: "Pages moved to a new key by an in-place transition.",
		}),
		LivePages: f.NewGauge(prometheus.GaugeOpts{
			Name: "calpicker_page_cache_live_pages",
			Help: "Pages currently held by the cache.",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calpicker_transitions_total",
			Help: "Transition requests by outcome.",
		}, []string{"outcome"}),
		Selections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calpicker_selection_events_total",
			Help: "User selection events by kind.",
		}, []string{"kind"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calpicker_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calpicker_http_request_duration_seconds",
			Help:    "Histogram of latencies for HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Hit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) Miss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) Evicted() {
	if m != nil {
		m.CacheEvictions.Inc()
	}
}

func (m *Metrics) Remapped() {
	if m != nil {
		m.CacheRemaps.Inc()
	}
}

func (m *Metrics) SetLivePages(n int) {
	if m != nil {
		m.LivePages.Set(float64(n))
	}
}

func (m *Metrics) Transition(outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Selection(kind string) {
	if m != nil {
		m.Selections.WithLabelValues(kind).Inc()
	}
}

// Middleware records request counts and latencies labelled with the chi
// route pattern, so query strings never explode the label space.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			route := routePattern(r)
			m.HTTPRequests.WithLabelValues(r.Method, route, code).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := strings.TrimSpace(rctx.RoutePattern()); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
