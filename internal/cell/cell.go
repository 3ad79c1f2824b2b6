// Package cell provides the reuse registry for day cells. The set of cell
// kinds is fixed when the widget is configured, so pools are keyed by an
// explicit Kind tag.
package cell

import (
	"errors"
	"fmt"
	"strconv"

	"calpicker/internal/calendar"
)

var ErrUnknownKind = errors.New("cell: kind not registered")

// Kind tags a family of interchangeable cells.
type Kind string

const KindDefault Kind = "default"

// Cell is a rendering resource bound to one day of one page.
type Cell interface {
	Kind() Kind
	// Configure binds the cell to a day of the given state.
	Configure(day calendar.Day, state calendar.State, selected bool)
	// Reset clears the binding before the cell is pooled again.
	Reset()
}

// Factory builds a fresh cell when the pool of its kind is empty.
type Factory func() Cell

type pool struct {
	factory Factory
	free    []Cell
}

// Registry holds one pool per registered kind.
type Registry struct {
	pools map[Kind]*pool
}

func NewRegistry() *Registry {
	return &Registry{pools: make(map[Kind]*pool)}
}

// Register installs the factory for kind, replacing any previous one.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.pools[kind] = &pool{factory: factory}
}

// Dequeue returns a pooled cell of kind or builds a new one.
func (r *Registry) Dequeue(kind Kind) (Cell, error) {
	p, ok := r.pools[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		return c, nil
	}
	return p.factory(), nil
}

// Enqueue resets cells and returns them to their pools. Cells of an
// unregistered kind are dropped.
func (r *Registry) Enqueue(cells ...Cell) {
	for _, c := range cells {
		if c == nil {
			continue
		}
		p, ok := r.pools[c.Kind()]
		if !ok {
			continue
		}
		c.Reset()
		p.free = append(p.free, c)
	}
}

// Pooled reports how many idle cells of kind are waiting for reuse.
func (r *Registry) Pooled(kind Kind) int {
	if p, ok := r.pools[kind]; ok {
		return len(p.free)
	}
	return 0
}

// TextCell is the default cell: a day number plus the flags a renderer
// needs to style it.
type TextCell struct {
	Label    string
	Day      calendar.Day
	InPeriod bool
	Today    bool
	Selected bool
}

func NewTextCell() Cell { return &TextCell{} }

func (c *TextCell) Kind() Kind { return KindDefault }

func (c *TextCell) Configure(day calendar.Day, state calendar.State, selected bool) {
	c.Day = day
	c.Label = strconv.Itoa(day.Date().Day())
	c.InPeriod = state.Contains(day.Date())
	c.Today = day.IsToday()
	c.Selected = selected
}

func (c *TextCell) Reset() {
	*c = TextCell{}
}
