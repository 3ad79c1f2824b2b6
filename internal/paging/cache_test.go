package paging

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"calpicker/internal/calendar"
	"calpicker/internal/metrics"
	"calpicker/internal/selection"
)

func testCalendar() *calendar.Calendar {
	return calendar.New(time.UTC, time.Sunday)
}

func nov2021(c *calendar.Calendar, layout calendar.Layout, day int) calendar.State {
	return c.NewState(layout, time.Date(2021, time.November, day, 0, 0, 0, 0, time.UTC))
}

func newTestCache(t *testing.T, tr *selection.Tracker, opts Options) *Cache {
	t.Helper()
	c, err := NewCache(tr, opts)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c
}

func TestPageForMemoizes(t *testing.T) {
	c := testCalendar()
	cache := newTestCache(t, nil, Options{})

	a := cache.PageFor(nov2021(c, calendar.Month, 1))
	b := cache.PageFor(nov2021(c, calendar.Month, 20))
	if a != b {
		t.Fatalf("equal states must return the identical page")
	}
	w := cache.PageFor(nov2021(c, calendar.Week, 20))
	if w == a {
		t.Fatalf("distinct states must return distinct pages")
	}
	if cache.Len() != 2 {
		t.Fatalf("len = %d, want 2", cache.Len())
	}
	if a.Len() != 35 || a.Rows() != 5 || w.Rows() != 1 {
		t.Fatalf("unexpected grid sizes: month %d/%d, week %d", a.Len(), a.Rows(), w.Rows())
	}
}

func TestPageForReconcilesOnHit(t *testing.T) {
	c := testCalendar()
	tr := selection.NewTracker(selection.Multiple)
	cache := newTestCache(t, tr, Options{})

	s := nov2021(c, calendar.Month, 1)
	page := cache.PageFor(s)

	d := c.DayOf(2021, time.November, 11)
	tr.Select(d)
	if page.IsRenderedSelected(d) {
		t.Fatalf("page must not change until it is handed out again")
	}
	if cache.PageFor(s) != page || !page.IsRenderedSelected(d) {
		t.Fatalf("page not resynchronized on hit")
	}

	tr.Deselect(d)
	cache.PageFor(s)
	if page.IsRenderedSelected(d) {
		t.Fatalf("stale highlight not cleared on hit")
	}
}

func TestNewPageStartsWithSelection(t *testing.T) {
	c := testCalendar()
	tr := selection.NewTracker(selection.Single)
	tr.Select(c.DayOf(2021, time.December, 24))
	cache := newTestCache(t, tr, Options{})

	page := cache.PageFor(c.NewState(calendar.Month, time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC)))
	sel := page.RenderedSelected()
	if len(sel) != 1 || sel[0].String() != "2021-12-24" {
		t.Fatalf("rendered selection = %v", sel)
	}
}

func TestRemapPreservesIdentity(t *testing.T) {
	c := testCalendar()
	evicted := 0
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cache := newTestCache(t, nil, Options{Metrics: m, OnEvict: func(*Page) { evicted++ }})

	month := nov2021(c, calendar.Month, 1)
	week := nov2021(c, calendar.Week, 15)
	page := cache.PageFor(month)
	id := page.ID()

	if err := cache.Remap(page, week); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	if cache.Contains(month) {
		t.Fatalf("old key must be removed")
	}
	got, ok := cache.Lookup(week)
	if !ok || got != page || page.ID() != id {
		t.Fatalf("page not reinserted under the new key")
	}
	if !page.State().Equal(week) || page.Len() != 7 {
		t.Fatalf("page not regenerated: %s with %d days", page.State(), page.Len())
	}
	if evicted != 0 {
		t.Fatalf("remap must not release page resources")
	}
	if testutil.ToFloat64(m.CacheRemaps) != 1 || testutil.ToFloat64(m.CacheEvictions) != 0 {
		t.Fatalf("unexpected metrics")
	}
}

func TestRemapStaleKey(t *testing.T) {
	c := testCalendar()
	cache := newTestCache(t, nil, Options{})

	page := cache.PageFor(nov2021(c, calendar.Month, 1))
	if err := cache.Remap(page, nov2021(c, calendar.Week, 15)); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	cache.Purge()

	err := cache.Remap(page, nov2021(c, calendar.Month, 1))
	if !errors.Is(err, ErrPageNotCached) {
		t.Fatalf("expected ErrPageNotCached, got %v", err)
	}
}

func TestRemapEvictsOccupant(t *testing.T) {
	c := testCalendar()
	var released []*Page
	cache := newTestCache(t, nil, Options{OnEvict: func(p *Page) { released = append(released, p) }})

	month := nov2021(c, calendar.Month, 1)
	week := nov2021(c, calendar.Week, 15)
	page := cache.PageFor(month)
	occupant := cache.PageFor(week)

	if err := cache.Remap(page, week); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	if len(released) != 1 || released[0] != occupant {
		t.Fatalf("occupant not released: %v", released)
	}
	if got, _ := cache.Lookup(week); got != page {
		t.Fatalf("remapped page must own the key")
	}
	if cache.Len() != 1 {
		t.Fatalf("len = %d", cache.Len())
	}
}

func TestRemapDropsHighlightsOffGrid(t *testing.T) {
	c := testCalendar()
	tr := selection.NewTracker(selection.Multiple)
	cache := newTestCache(t, tr, Options{})

	tr.Select(c.DayOf(2021, time.November, 2))
	tr.Select(c.DayOf(2021, time.November, 16))
	page := cache.PageFor(nov2021(c, calendar.Month, 1))
	if len(page.RenderedSelected()) != 2 {
		t.Fatalf("expected two highlights")
	}

	if err := cache.Remap(page, nov2021(c, calendar.Week, 15)); err != nil {
		t.Fatalf("Remap: %v", err)
	}
	sel := page.RenderedSelected()
	if len(sel) != 1 || sel[0].String() != "2021-11-16" {
		t.Fatalf("rendered selection after remap = %v", sel)
	}
}

func TestCapacityEviction(t *testing.T) {
	c := testCalendar()
	var released []calendar.Key
	cache := newTestCache(t, nil, Options{Capacity: 3, OnEvict: func(p *Page) {
		released = append(released, p.State().Key())
	}})

	s := nov2021(c, calendar.Month, 1)
	first := s
	for i := 0; i < 4; i++ {
		cache.PageFor(s)
		s = s.Next()
	}
	if cache.Len() != 3 {
		t.Fatalf("len = %d, want 3", cache.Len())
	}
	if len(released) != 1 || released[0] != first.Key() {
		t.Fatalf("released = %v, want [%s]", released, first.Key())
	}
}

func TestPinnedPageSurvivesNeighbours(t *testing.T) {
	c := testCalendar()
	cache := newTestCache(t, nil, Options{Capacity: 3})

	current := nov2021(c, calendar.Month, 1)
	page := cache.PageFor(current)
	cache.Pin(current)
	// Prefetch both neighbours twice over; the current page is the least
	// recently used entry each time the cache fills up.
	for _, s := range []calendar.State{current.Next(), current.Prev(), current.Step(2), current.Step(-2)} {
		cache.PageFor(s)
	}
	if got, ok := cache.Lookup(current); !ok || got != page {
		t.Fatalf("pinned page for %s was evicted", current)
	}
	if cache.Len() != 3 {
		t.Fatalf("len = %d, want 3", cache.Len())
	}

	// Once unpinned it ages out like any other page.
	cache.Pin()
	cache.PageFor(current.Step(3))
	cache.PageFor(current.Step(4))
	cache.PageFor(current.Step(5))
	if cache.Contains(current) {
		t.Fatalf("unpinned page for %s must be evictable", current)
	}
}

func TestCapacityRaisedToMinimum(t *testing.T) {
	c := testCalendar()
	cache := newTestCache(t, nil, Options{Capacity: 2})

	current := nov2021(c, calendar.Month, 1)
	cache.PageFor(current)
	cache.Pin(current)
	cache.PageFor(current.Next())
	cache.PageFor(current.Prev())
	if cache.Len() != MinCapacity {
		t.Fatalf("len = %d, want %d", cache.Len(), MinCapacity)
	}
	for _, s := range []calendar.State{current.Prev(), current, current.Next()} {
		if !cache.Contains(s) {
			t.Fatalf("%s must be cached", s)
		}
	}
}

func TestTrimKeepsWindow(t *testing.T) {
	c := testCalendar()
	cache := newTestCache(t, nil, Options{Radius: 1})

	current := nov2021(c, calendar.Month, 1)
	cache.PageFor(current.Step(-3))
	cache.PageFor(current.Prev())
	cache.PageFor(current)
	cache.PageFor(current.Next())
	cache.PageFor(current.Step(2))
	// A week page inside the window survives; one far away does not.
	inside := cache.PageFor(nov2021(c, calendar.Week, 15))
	cache.PageFor(c.NewState(calendar.Week, time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)))

	if n := cache.Trim(current); n != 3 {
		t.Fatalf("trimmed %d, want 3", n)
	}
	for _, s := range []calendar.State{current.Prev(), current, current.Next(), inside.State()} {
		if !cache.Contains(s) {
			t.Fatalf("%s must survive trimming", s)
		}
	}
}

func TestPagesListsLivePages(t *testing.T) {
	c := testCalendar()
	cache := newTestCache(t, nil, Options{})
	a := cache.PageFor(nov2021(c, calendar.Month, 1))
	b := cache.PageFor(nov2021(c, calendar.Week, 1))
	pages := cache.Pages()
	if len(pages) != 2 || pages[0] != a || pages[1] != b {
		t.Fatalf("pages = %v", pages)
	}
}

func TestCacheMetrics(t *testing.T) {
	c := testCalendar()
	m := metrics.New(prometheus.NewRegistry())
	cache := newTestCache(t, nil, Options{Metrics: m})

	s := nov2021(c, calendar.Month, 1)
	cache.PageFor(s)
	cache.PageFor(s)
	cache.PageFor(s.Next())

	if testutil.ToFloat64(m.CacheMisses) != 2 || testutil.ToFloat64(m.CacheHits) != 1 {
		t.Fatalf("hits/misses = %v/%v", testutil.ToFloat64(m.CacheHits), testutil.ToFloat64(m.CacheMisses))
	}
	if testutil.ToFloat64(m.LivePages) != 2 {
		t.Fatalf("live pages = %v", testutil.ToFloat64(m.LivePages))
	}
}
