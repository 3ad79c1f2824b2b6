package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Hit()
	m.Miss()
	m.Evicted()
	m.Remapped()
	m.SetLivePages(3)
	m.Transition("swap")
	m.Selection("select")

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if got := m.Middleware()(h); got == nil {
		t.Fatalf("nil metrics middleware must pass through")
	}
}

func TestCountersAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Hit()
	m.Hit()
	m.Miss()
	m.SetLivePages(5)
	m.Transition("in_place")

	if got := testutil.ToFloat64(m.CacheHits); got != 2 {
		t.Fatalf("hits = %v", got)
	}
	if got := testutil.ToFloat64(m.LivePages); got != 5 {
		t.Fatalf("live pages = %v", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("in_place")); got != 1 {
		t.Fatalf("transitions = %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "calpicker_page_cache_hits_total 2") {
		t.Fatalf("metrics body missing hits counter:\n%s", rec.Body.String())
	}
}

func TestMiddlewareLabelsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/items/{id}", "418")); got != 2 {
		t.Fatalf("requests = %v", got)
	}
}
