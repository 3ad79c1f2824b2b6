package paging

import (
	"sort"

	"calpicker/internal/calendar"
	"calpicker/internal/cell"
)

// Page is the cached rendering unit of one State: its day grid, the subset
// of days currently drawn as selected, and the cells bound to it.
type Page struct {
	id       uint64
	state    calendar.State
	days     []calendar.Day
	index    map[calendar.DayKey]int
	selected map[calendar.DayKey]calendar.Day
	cells    []cell.Cell
}

func newPage(id uint64, s calendar.State) *Page {
	p := &Page{id: id, selected: make(map[calendar.DayKey]calendar.Day)}
	p.retarget(s)
	return p
}

// retarget points the page at another state and rebuilds its grid. Rendered
// selection on days that left the grid is dropped; cells are kept so the
// renderer can animate them.
func (p *Page) retarget(s calendar.State) {
	p.state = s
	p.days = calendar.Days(s)
	p.index = make(map[calendar.DayKey]int, len(p.days))
	for i, d := range p.days {
		p.index[d.Key()] = i
	}
	for k := range p.selected {
		if _, ok := p.index[k]; !ok {
			delete(p.selected, k)
		}
	}
}

// ID is stable for the lifetime of the page, across in-place remaps.
func (p *Page) ID() uint64 { return p.id }

func (p *Page) State() calendar.State { return p.state }

// Days returns a copy of the grid.
func (p *Page) Days() []calendar.Day {
	out := make([]calendar.Day, len(p.days))
	copy(out, p.days)
	return out
}

// Len is the number of grid cells.
func (p *Page) Len() int { return len(p.days) }

// Rows is the number of week rows the grid occupies.
func (p *Page) Rows() int { return len(p.days) / 7 }

// Range is the displayed period, without grid padding.
func (p *Page) Range() calendar.Range { return p.state.Range() }

// OnGrid reports whether d is one of the grid's cells, padding included.
func (p *Page) OnGrid(d calendar.Day) bool {
	_, ok := p.index[d.Key()]
	return ok
}

// InPeriod reports whether d belongs to the displayed period.
func (p *Page) InPeriod(d calendar.Day) bool { return p.state.Contains(d.Date()) }

// IndexOf returns the grid position of d, or -1.
func (p *Page) IndexOf(d calendar.Day) int {
	if i, ok := p.index[d.Key()]; ok {
		return i
	}
	return -1
}

// RenderedSelected returns the days drawn as selected, ascending.
func (p *Page) RenderedSelected() []calendar.Day {
	out := make([]calendar.Day, 0, len(p.selected))
	for _, d := range p.selected {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (p *Page) IsRenderedSelected(d calendar.Day) bool {
	_, ok := p.selected[d.Key()]
	return ok
}

// MarkSelected draws d as selected. It reports false if d is not on the grid.
func (p *Page) MarkSelected(d calendar.Day) bool {
	if !p.OnGrid(d) {
		return false
	}
	p.selected[d.Key()] = d
	return true
}

// MarkDeselected clears d's highlight. It reports false if d is not on the grid.
func (p *Page) MarkDeselected(d calendar.Day) bool {
	if !p.OnGrid(d) {
		return false
	}
	delete(p.selected, d.Key())
	return true
}

// Cells returns the cells attached by the renderer, in grid order.
func (p *Page) Cells() []cell.Cell { return p.cells }

func (p *Page) SetCells(cells []cell.Cell) { p.cells = cells }

// TakeCells detaches and returns the page's cells.
func (p *Page) TakeCells() []cell.Cell {
	cells := p.cells
	p.cells = nil
	return cells
}
