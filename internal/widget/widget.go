// Package widget assembles the calendar picker: the calendar context, the
// page cache, the transition planner, the selection and the cell registry.
// A Widget is not safe for concurrent use; hosts funnel every call through
// one goroutine.
package widget

import (
	"errors"
	"fmt"
	"time"

	"calpicker/internal/calendar"
	"calpicker/internal/cell"
	appLog "calpicker/internal/log"
	"calpicker/internal/metrics"
	"calpicker/internal/paging"
	"calpicker/internal/selection"
	"calpicker/internal/transition"
)

var ErrZeroDay = errors.New("widget: zero day")

// Delegate receives user selection changes. Both calls happen after the
// selection has been updated.
type Delegate interface {
	OnSelect(day calendar.Day)
	OnDeselect(days []calendar.Day)
}

// CellSource picks the cell kind for a day. Every kind it returns must be
// registered through Options.CellKinds.
type CellSource func(day calendar.Day, state calendar.State) cell.Kind

type Options struct {
	// Location defaults to time.Local.
	Location     *time.Location
	FirstWeekday time.Weekday
	// Clock overrides time.Now, mostly for tests.
	Clock func() time.Time

	// Layout and InitialDate pick the first displayed state. A zero
	// InitialDate means today.
	Layout      calendar.Layout
	InitialDate time.Time

	Selection     selection.Mode
	SymbolStyle   calendar.SymbolStyle
	CustomSymbols []string

	CacheCapacity int
	CacheRadius   int

	Metrics    *metrics.Metrics
	Delegate   Delegate
	CellKinds  map[cell.Kind]cell.Factory
	CellSource CellSource
}

type Widget struct {
	opts     Options
	cal      *calendar.Calendar
	tracker  *selection.Tracker
	cache    *paging.Cache
	planner  *transition.Planner
	registry *cell.Registry
	symbols  []string
	obs      observers
}

// New validates opts and wires the widget to r. Nothing is displayed until
// Start.
func New(opts Options, r transition.Renderer) (*Widget, error) {
	if r == nil {
		return nil, fmt.Errorf("widget: nil renderer")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.FirstWeekday < time.Sunday || opts.FirstWeekday > time.Saturday {
		return nil, fmt.Errorf("widget: invalid first weekday %d", opts.FirstWeekday)
	}

	var calOpts []calendar.Option
	if opts.Clock != nil {
		calOpts = append(calOpts, calendar.WithClock(opts.Clock))
	}
	cal := calendar.New(opts.Location, opts.FirstWeekday, calOpts...)

	symbols, err := calendar.WeekdaySymbols(opts.SymbolStyle, opts.FirstWeekday, opts.CustomSymbols)
	if err != nil {
		return nil, fmt.Errorf("widget: %w", err)
	}

	w := &Widget{
		opts:     opts,
		cal:      cal,
		tracker:  selection.NewTracker(opts.Selection),
		registry: cell.NewRegistry(),
		symbols:  symbols,
	}
	w.registry.Register(cell.KindDefault, cell.NewTextCell)
	for kind, factory := range opts.CellKinds {
		if factory == nil {
			return nil, fmt.Errorf("widget: nil factory for cell kind %q", kind)
		}
		w.registry.Register(kind, factory)
	}

	w.cache, err = paging.NewCache(w.tracker, paging.Options{
		Capacity: opts.CacheCapacity,
		Radius:   opts.CacheRadius,
		Metrics:  opts.Metrics,
		OnEvict:  w.release,
	})
	if err != nil {
		return nil, fmt.Errorf("widget: %w", err)
	}
	w.planner = transition.New(w.cache, r, transition.Options{
		Metrics:  opts.Metrics,
		OnCommit: w.committed,
	})
	return w, nil
}

// Start displays the initial state.
func (w *Widget) Start() error {
	date := w.opts.InitialDate
	if date.IsZero() {
		date = w.cal.Now()
	}
	initial := w.cal.NewState(w.opts.Layout, date)
	appLog.Info("calendar widget starting", "state", initial, "selection", w.tracker.Mode())
	return w.planner.Start(initial)
}

// Transition moves the display to the state to.
func (w *Widget) Transition(to calendar.State, animated bool) error {
	_, err := w.planner.Transition(to, animated)
	return err
}

// TransitionToToday shows the period containing today in the current layout.
func (w *Widget) TransitionToToday(animated bool) error {
	return w.Transition(w.cal.NewState(w.currentLayout(), w.cal.Now()), animated)
}

// SwitchLayout changes between month and week display around a focus day:
// the first selected day in view, else today when in view, else the start
// of the displayed period.
// The period is the one the display is heading to, so a switch requested
// mid-transition applies to the incoming page.
func (w *Widget) SwitchLayout(layout calendar.Layout, animated bool) error {
	cur := w.planner.Target()
	if cur.IsZero() {
		return transition.ErrNotStarted
	}
	if cur.Layout() == layout {
		return nil
	}

	focus := cur.Anchor()
	if sel := w.tracker.Within(cur.Range()); len(sel) > 0 {
		focus = sel[0].Date()
	} else if today := w.cal.Today(); cur.Contains(today) {
		focus = today
	}
	return w.Transition(w.cal.NewState(layout, focus), animated)
}

// UserSelected records a tap on day. A day outside the displayed period
// first moves the display to the period containing it.
func (w *Widget) UserSelected(day calendar.Day) error {
	if day.IsZero() {
		return ErrZeroDay
	}
	day = w.cal.Day(day.Date())

	if cur := w.planner.Target(); !cur.IsZero() && !cur.Contains(day.Date()) {
		appLog.Warn("selected day outside displayed period, moving display", "day", day, "state", cur)
		if err := w.Transition(w.cal.NewState(cur.Layout(), day.Date()), true); err != nil {
			return err
		}
	}

	replaced := w.tracker.Select(day)
	if d := w.opts.Delegate; d != nil {
		if len(replaced) > 0 {
			d.OnDeselect(replaced)
		}
		d.OnSelect(day)
	}
	w.opts.Metrics.Selection("select")
	w.selectionChanged()
	return nil
}

// UserDeselected clears day and reports whether it was selected.
func (w *Widget) UserDeselected(day calendar.Day) bool {
	if day.IsZero() {
		return false
	}
	day = w.cal.Day(day.Date())
	if !w.tracker.Deselect(day) {
		appLog.Warn("deselected day was not selected", "day", day)
		return false
	}
	if d := w.opts.Delegate; d != nil {
		d.OnDeselect([]calendar.Day{day})
	}
	w.opts.Metrics.Selection("deselect")
	w.selectionChanged()
	return true
}

// PageBefore returns the page preceding p, for swipe-driven hosts.
func (w *Widget) PageBefore(p *paging.Page) *paging.Page { return w.planner.PageBefore(p) }

// PageAfter returns the page following p.
func (w *Widget) PageAfter(p *paging.Page) *paging.Page { return w.planner.PageAfter(p) }

// DidFinishPaging commits a page the host brought on screen by a swipe.
func (w *Widget) DidFinishPaging(p *paging.Page) error { return w.planner.DidFinishPaging(p) }

// CurrentPage returns the page of the committed state.
func (w *Widget) CurrentPage() (*paging.Page, error) {
	cur := w.planner.Current()
	if cur.IsZero() {
		return nil, transition.ErrNotStarted
	}
	if !w.cache.Contains(cur) {
		return nil, fmt.Errorf("%w: %s", transition.ErrNoCurrentPage, cur)
	}
	return w.cache.PageFor(cur), nil
}

// Cells binds one cell per grid day of p and returns them in grid order.
// Cells already attached to p are reused when their kinds still match.
func (w *Widget) Cells(p *paging.Page) []cell.Cell {
	days := p.Days()
	state := p.State()

	kinds := make([]cell.Kind, len(days))
	for i, d := range days {
		kinds[i] = w.kindFor(d, state)
	}

	cells := p.Cells()
	if !sameKinds(cells, kinds) {
		w.registry.Enqueue(p.TakeCells()...)
		cells = make([]cell.Cell, len(days))
		for i, kind := range kinds {
			c, err := w.registry.Dequeue(kind)
			if err != nil {
				appLog.Error("cell dequeue failed, using default cell", err, "kind", kind, "day", days[i])
				c, _ = w.registry.Dequeue(cell.KindDefault)
			}
			cells[i] = c
		}
		p.SetCells(cells)
	}

	for i, d := range days {
		cells[i].Configure(d, state, p.IsRenderedSelected(d))
	}
	return cells
}

// Selected returns the selected days, ascending.
func (w *Widget) Selected() []calendar.Day { return w.tracker.Days() }

// WeekdaySymbols returns the column headers, first weekday first.
func (w *Widget) WeekdaySymbols() []string {
	return append([]string(nil), w.symbols...)
}

func (w *Widget) Calendar() *calendar.Calendar { return w.cal }

// Current is the committed state; zero before Start completes.
func (w *Widget) Current() calendar.State { return w.planner.Current() }

// Target is the state the display is heading to; it equals Current when no
// transition is in flight or queued.
func (w *Widget) Target() calendar.State { return w.planner.Target() }

func (w *Widget) Phase() transition.Phase { return w.planner.Phase() }

// Subscribe registers fn for widget events and returns its unsubscribe
// function.
func (w *Widget) Subscribe(fn func(Event)) func() { return w.obs.add(fn) }

// RefreshToday re-evaluates which cell shows today, typically after local
// midnight.
func (w *Widget) RefreshToday() {
	today := w.cal.Day(w.cal.Now())
	for _, p := range w.cache.Pages() {
		if len(p.Cells()) > 0 {
			w.Cells(p)
		}
	}
	appLog.Info("today changed", "today", today)
	w.obs.publish(Event{Kind: EventTodayChanged, State: w.planner.Current(), Today: today})
}

func (w *Widget) currentLayout() calendar.Layout {
	if cur := w.planner.Target(); !cur.IsZero() {
		return cur.Layout()
	}
	return w.opts.Layout
}

func (w *Widget) kindFor(d calendar.Day, s calendar.State) cell.Kind {
	if w.opts.CellSource == nil {
		return cell.KindDefault
	}
	if kind := w.opts.CellSource(d, s); kind != "" {
		return kind
	}
	return cell.KindDefault
}

func (w *Widget) selectionChanged() {
	for _, p := range w.cache.Pages() {
		w.tracker.Reconcile(p)
		if len(p.Cells()) > 0 {
			w.Cells(p)
		}
	}
	w.obs.publish(Event{Kind: EventSelectionChanged, State: w.planner.Current(), Selected: w.tracker.Days()})
}

func (w *Widget) committed(s calendar.State) {
	appLog.Debug("calendar state committed", "state", s)
	w.obs.publish(Event{Kind: EventStateChanged, State: s, Selected: w.tracker.Days()})
}

func (w *Widget) release(p *paging.Page) {
	w.registry.Enqueue(p.TakeCells()...)
}

func sameKinds(cells []cell.Cell, kinds []cell.Kind) bool {
	if len(cells) != len(kinds) {
		return false
	}
	for i, c := range cells {
		if c == nil || c.Kind() != kinds[i] {
			return false
		}
	}
	return true
}
