package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the period type a State displays.
type Layout int

const (
	Month Layout = iota
	Week
)

func (l Layout) String() string {
	switch l {
	case Month:
		return "month"
	case Week:
		return "week"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// ParseLayout maps "month" / "week" to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month":
		return Month, nil
	case "week":
		return Week, nil
	default:
		return Month, fmt.Errorf("calendar: unknown layout %q", s)
	}
}

// Key identifies a State. Two states are equal iff their keys are equal.
type Key struct {
	Layout Layout
	Year   int
	Month  time.Month
	Day    int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%04d-%02d-%02d", k.Layout, k.Year, int(k.Month), k.Day)
}

// Range is a closed interval [Start, End] of instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether the two closed ranges share at least one instant.
func (r Range) Overlaps(o Range) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

// State describes which normalized period is displayed, in which layout.
// The anchor is normalized on construction and a State is never mutated;
// moving to another period produces a new State.
type State struct {
	cal    *Calendar
	layout Layout
	anchor time.Time
}

// NewState normalizes date to the first instant of its month (Month) or of
// its week (Week) and returns the resulting State.
func (c *Calendar) NewState(layout Layout, date time.Time) State {
	var anchor time.Time
	switch layout {
	case Week:
		anchor = c.StartOfWeek(date)
	default:
		layout = Month
		anchor = c.StartOfMonth(date)
	}
	return State{cal: c, layout: layout, anchor: anchor}
}

// MonthOfToday returns the Month state containing the current day.
func (c *Calendar) MonthOfToday() State { return c.NewState(Month, c.Now()) }

// WeekOfToday returns the Week state containing the current day.
func (c *Calendar) WeekOfToday() State { return c.NewState(Week, c.Now()) }

// Calendar returns the context the state was built with.
func (s State) Calendar() *Calendar { return s.cal }

func (s State) Layout() Layout { return s.layout }

// Anchor is the first instant of the displayed period.
func (s State) Anchor() time.Time { return s.anchor }

// IsZero reports whether s was never constructed through NewState.
func (s State) IsZero() bool { return s.cal == nil }

func (s State) Key() Key {
	y, m, d := s.anchor.Date()
	return Key{Layout: s.layout, Year: y, Month: m, Day: d}
}

// Equal compares layout and anchor only.
func (s State) Equal(o State) bool { return s.Key() == o.Key() }

// Before orders states by anchor.
func (s State) Before(o State) bool { return s.anchor.Before(o.anchor) }

// Prev steps one period back in the same layout.
func (s State) Prev() State { return s.step(-1) }

// Next steps one period forward in the same layout.
func (s State) Next() State { return s.step(1) }

// Step moves n periods (negative for backwards) in the same layout.
func (s State) Step(n int) State { return s.step(n) }

func (s State) step(n int) State {
	if s.layout == Week {
		return s.cal.NewState(Week, s.cal.AddDays(s.anchor, 7*n))
	}
	return s.cal.NewState(Month, s.cal.AddMonths(s.anchor, n))
}

// Range covers every instant of the period: 7 days for Week, the 1st to the
// last day for Month. Grid padding is not included.
func (s State) Range() Range {
	return Range{Start: s.anchor, End: s.Next().anchor.Add(-time.Nanosecond)}
}

// Contains reports whether t belongs to the displayed period.
func (s State) Contains(t time.Time) bool { return s.Range().Contains(t) }

func (s State) String() string {
	if s.IsZero() {
		return "state(zero)"
	}
	return s.layout.String() + ":" + s.anchor.Format("2006-01-02")
}

// ShouldTransitionInPlace reports whether moving from a to b can reuse a's
// page: the layouts differ and the two periods overlap.
func ShouldTransitionInPlace(a, b State) bool {
	return a.layout != b.layout && a.Range().Overlaps(b.Range())
}
