// Package paging memoizes pages per CalendarState and bounds how many of
// them stay alive.
package paging

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"calpicker/internal/calendar"
	appLog "calpicker/internal/log"
	"calpicker/internal/metrics"
	"calpicker/internal/selection"
)

const (
	DefaultCapacity = 24
	DefaultRadius   = 3
	// MinCapacity leaves room for the pinned pages plus one neighbour.
	MinCapacity = 3
)

// ErrPageNotCached means a page was expected under its state's key but the
// cache holds nothing (or another page) there.
var ErrPageNotCached = errors.New("paging: page is not cached under its state")

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	// Capacity bounds the number of live pages (LRU eviction). Values
	// below MinCapacity are raised to it.
	Capacity int
	// Radius is the number of periods kept on each side of the current
	// state by Trim.
	Radius int
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// OnEvict is called for every page dropped from the cache so its
	// rendering resources can be released. Remaps do not trigger it.
	OnEvict func(*Page)
}

// Cache maps CalendarState keys to pages. There is at most one live page per
// key. It is not safe for concurrent use.
type Cache struct {
	entries   *lru.Cache[calendar.Key, *Page]
	tracker   *selection.Tracker
	opts      Options
	nextID    uint64
	remapping bool
	pinned    []calendar.Key
}

// NewCache builds a cache whose pages are reconciled against tracker
// whenever they are handed out. tracker may be nil.
func NewCache(tracker *selection.Tracker, opts Options) (*Cache, error) {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Capacity < MinCapacity {
		appLog.Warn("page cache capacity raised", "requested", opts.Capacity, "capacity", MinCapacity)
		opts.Capacity = MinCapacity
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}

	c := &Cache{tracker: tracker, opts: opts}
	entries, err := lru.NewWithEvict[calendar.Key, *Page](opts.Capacity, c.evicted)
	if err != nil {
		return nil, fmt.Errorf("paging: create lru: %w", err)
	}
	c.entries = entries
	return c, nil
}

func (c *Cache) evicted(key calendar.Key, p *Page) {
	if c.remapping {
		return
	}
	c.opts.Metrics.Evicted()
	appLog.Debug("page evicted", "key", key, "page", p.ID())
	if c.opts.OnEvict != nil {
		c.opts.OnEvict(p)
	}
}

// PageFor returns the page for s, building it on first use. A cached page
// is resynchronized with the current selection before it is returned.
func (c *Cache) PageFor(s calendar.State) *Page {
	if p, ok := c.entries.Get(s.Key()); ok {
		c.opts.Metrics.Hit()
		c.reconcile(p)
		return p
	}

	c.opts.Metrics.Miss()
	c.nextID++
	p := newPage(c.nextID, s)
	c.reconcile(p)
	if c.entries.Len() >= c.opts.Capacity {
		c.touchPinned()
	}
	c.entries.Add(s.Key(), p)
	c.opts.Metrics.SetLivePages(c.entries.Len())
	appLog.Debug("page created", "state", s, "page", p.ID(), "days", p.Len())
	return p
}

// Pin marks the pages of states as in use. Pinned pages are never chosen
// for LRU eviction; Trim and Purge still drop them. Each call replaces the
// previous set, which must stay smaller than MinCapacity.
func (c *Cache) Pin(states ...calendar.State) {
	c.pinned = c.pinned[:0]
	for _, s := range states {
		if !s.IsZero() {
			c.pinned = append(c.pinned, s.Key())
		}
	}
}

// touchPinned moves the pinned pages to the front of the LRU order so the
// next eviction falls on an unpinned page.
func (c *Cache) touchPinned() {
	for _, k := range c.pinned {
		c.entries.Get(k)
	}
}

// Lookup returns the cached page for s without creating one.
func (c *Cache) Lookup(s calendar.State) (*Page, bool) {
	return c.entries.Get(s.Key())
}

// Contains reports whether a page for s is cached.
func (c *Cache) Contains(s calendar.State) bool {
	return c.entries.Contains(s.Key())
}

// Remap moves p, cached under its current state, to the key of to and
// regenerates its grid. The page keeps its identity. A different page
// already cached under to is evicted first.
func (c *Cache) Remap(p *Page, to calendar.State) error {
	from := p.State()
	cached, ok := c.entries.Peek(from.Key())
	if !ok || cached != p {
		return fmt.Errorf("%w: %s", ErrPageNotCached, from)
	}
	if from.Equal(to) {
		return nil
	}

	c.remapping = true
	c.entries.Remove(from.Key())
	c.remapping = false

	if other, ok := c.entries.Peek(to.Key()); ok && other != p {
		c.entries.Remove(to.Key())
	}

	p.retarget(to)
	c.reconcile(p)
	c.entries.Add(to.Key(), p)
	c.opts.Metrics.Remapped()
	c.opts.Metrics.SetLivePages(c.entries.Len())
	appLog.Debug("page remapped", "from", from, "to", to, "page", p.ID())
	return nil
}

// Trim evicts every page whose period lies entirely outside the window of
// Radius periods around current. It returns the number of evicted pages.
func (c *Cache) Trim(current calendar.State) int {
	win, err := Window(current, c.opts.Radius)
	if err != nil || len(win) == 0 {
		appLog.Error("page cache trim skipped", err, "state", current)
		return 0
	}
	span := calendar.Range{Start: win[0].Range().Start, End: win[len(win)-1].Range().End}

	n := 0
	for _, k := range c.entries.Keys() {
		p, ok := c.entries.Peek(k)
		if !ok || p.Range().Overlaps(span) {
			continue
		}
		if c.entries.Remove(k) {
			n++
		}
	}
	c.opts.Metrics.SetLivePages(c.entries.Len())
	return n
}

// Pages returns the live pages, least recently used first.
func (c *Cache) Pages() []*Page {
	keys := c.entries.Keys()
	out := make([]*Page, 0, len(keys))
	for _, k := range keys {
		if p, ok := c.entries.Peek(k); ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) Len() int { return c.entries.Len() }

// Purge evicts every page.
func (c *Cache) Purge() {
	c.entries.Purge()
	c.opts.Metrics.SetLivePages(0)
}

func (c *Cache) reconcile(p *Page) {
	if c.tracker == nil {
		return
	}
	c.tracker.Reconcile(p)
}
