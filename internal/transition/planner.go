// Package transition decides how the displayed page moves from one state to
// another and drives the renderer through it.
package transition

import (
	"errors"
	"fmt"

	"calpicker/internal/calendar"
	appLog "calpicker/internal/log"
	"calpicker/internal/metrics"
	"calpicker/internal/paging"
)

var (
	ErrNotStarted         = errors.New("transition: planner not started")
	ErrZeroState          = errors.New("transition: zero state")
	ErrNoCurrentPage      = errors.New("transition: no cached page for the current state")
	ErrTransitionInFlight = errors.New("transition: a transition is in flight")
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

type Phase int

const (
	Idle Phase = iota
	Transitioning
)

func (p Phase) String() string {
	if p == Transitioning {
		return "transitioning"
	}
	return "idle"
}

// Outcome is what Transition did with a request.
type Outcome int

const (
	OutcomeNoop Outcome = iota
	OutcomeQueued
	OutcomeInPlace
	OutcomeSwap
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQueued:
		return "queued"
	case OutcomeInPlace:
		return "in_place"
	case OutcomeSwap:
		return "swap"
	default:
		return "noop"
	}
}

// Renderer is the drawing side. Both calls must eventually invoke done
// exactly once, possibly synchronously; extra calls are ignored.
type Renderer interface {
	// ShowPage replaces the displayed page with p.
	ShowPage(p *paging.Page, dir Direction, animated bool, done func())
	// Relayout keeps p on screen and resizes it to rows week rows.
	Relayout(p *paging.Page, rows int, animated bool, done func())
}

type Options struct {
	Metrics *metrics.Metrics
	// OnCommit runs after every committed state change, before any queued
	// request is started.
	OnCommit func(calendar.State)
}

type request struct {
	to       calendar.State
	animated bool
}

// Planner serializes transitions: at most one is in flight, and at most one
// more waits behind it (a newer request replaces the waiting one).
type Planner struct {
	cache    *paging.Cache
	renderer Renderer
	opts     Options

	current calendar.State
	target  calendar.State
	phase   Phase
	gen     uint64
	pending *request
}

func New(cache *paging.Cache, r Renderer, opts Options) *Planner {
	return &Planner{cache: cache, renderer: r, opts: opts}
}

// Current is the last committed state. It is zero before Start.
func (p *Planner) Current() calendar.State { return p.current }

func (p *Planner) Phase() Phase { return p.phase }

// Target is the state the display is heading to: the queued request, else
// the one in flight, else Current.
func (p *Planner) Target() calendar.State {
	if p.pending != nil {
		return p.pending.to
	}
	if p.phase == Transitioning {
		return p.target
	}
	return p.current
}

// Start displays the page for initial without animation.
func (p *Planner) Start(initial calendar.State) error {
	if initial.IsZero() {
		return ErrZeroState
	}
	if !p.current.IsZero() {
		_, err := p.Transition(initial, false)
		return err
	}
	if p.phase == Transitioning {
		p.pending = &request{to: initial}
		return nil
	}

	page := p.cache.PageFor(initial)
	done := p.begin(initial)
	appLog.Debug("transition start", "state", initial, "page", page.ID())
	p.renderer.ShowPage(page, Forward, false, done)
	return nil
}

// Transition moves the display to the state to. Requests arriving while a
// transition is in flight are queued.
func (p *Planner) Transition(to calendar.State, animated bool) (Outcome, error) {
	if to.IsZero() {
		return OutcomeNoop, ErrZeroState
	}
	if p.current.IsZero() && p.phase == Idle {
		return OutcomeNoop, ErrNotStarted
	}

	if p.phase == Transitioning {
		if to.Equal(p.target) && p.pending == nil {
			p.record(OutcomeNoop)
			return OutcomeNoop, nil
		}
		p.pending = &request{to: to, animated: animated}
		appLog.Debug("transition queued", "to", to, "in_flight", p.target)
		p.record(OutcomeQueued)
		return OutcomeQueued, nil
	}

	if to.Equal(p.current) {
		p.record(OutcomeNoop)
		return OutcomeNoop, nil
	}

	from := p.current
	if calendar.ShouldTransitionInPlace(from, to) {
		page, ok := p.cache.Lookup(from)
		if !ok {
			appLog.Error("in-place transition failed", ErrNoCurrentPage, "from", from, "to", to)
			return OutcomeNoop, fmt.Errorf("%w: %s", ErrNoCurrentPage, from)
		}
		if err := p.cache.Remap(page, to); err != nil {
			appLog.Error("in-place transition failed", err, "from", from, "to", to)
			return OutcomeNoop, err
		}
		done := p.begin(to)
		appLog.Debug("transition in place", "from", from, "to", to, "page", page.ID(), "rows", page.Rows())
		p.record(OutcomeInPlace)
		p.renderer.Relayout(page, page.Rows(), animated, done)
		return OutcomeInPlace, nil
	}

	page := p.cache.PageFor(to)
	dir := Forward
	if to.Before(from) {
		dir = Backward
	}
	done := p.begin(to)
	appLog.Debug("transition swap", "from", from, "to", to, "page", page.ID(), "direction", dir)
	p.record(OutcomeSwap)
	p.renderer.ShowPage(page, dir, animated, done)
	return OutcomeSwap, nil
}

// PageBefore returns the page preceding page in its layout.
func (p *Planner) PageBefore(page *paging.Page) *paging.Page {
	return p.cache.PageFor(page.State().Prev())
}

// PageAfter returns the page following page in its layout.
func (p *Planner) PageAfter(page *paging.Page) *paging.Page {
	return p.cache.PageFor(page.State().Next())
}

// DidFinishPaging commits a page the renderer brought on screen by itself,
// typically after a swipe.
func (p *Planner) DidFinishPaging(page *paging.Page) error {
	if p.phase == Transitioning {
		return ErrTransitionInFlight
	}
	if p.current.IsZero() {
		return ErrNotStarted
	}
	if page.State().Equal(p.current) {
		return nil
	}
	p.commit(page.State())
	return nil
}

func (p *Planner) begin(to calendar.State) func() {
	p.gen++
	gen := p.gen
	p.phase = Transitioning
	p.target = to
	p.cache.Pin(p.current, to)
	return func() {
		if gen != p.gen || p.phase != Transitioning {
			appLog.Debug("stale transition completion ignored", "to", to)
			return
		}
		p.commit(to)
	}
}

func (p *Planner) commit(to calendar.State) {
	p.gen++
	p.phase = Idle
	p.target = calendar.State{}
	p.current = to
	p.cache.Pin(to)

	if n := p.cache.Trim(to); n > 0 {
		appLog.Debug("pages trimmed", "around", to, "count", n)
	}
	if p.opts.OnCommit != nil {
		p.opts.OnCommit(to)
	}

	if req := p.pending; req != nil {
		p.pending = nil
		if _, err := p.Transition(req.to, req.animated); err != nil {
			appLog.Error("queued transition failed", err, "to", req.to)
		}
	}
}

func (p *Planner) record(o Outcome) {
	p.opts.Metrics.Transition(o.String())
}
