// Package calendar holds the date model of the picker: the calendar context
// (timezone, first weekday, clock), the normalized display State, Day values
// and the day-grid provider.
//
// All arithmetic is done on calendar fields in the context's location, so a
// "day" is always a civil day even across DST changes.
package calendar

import (
	"time"
)

// Calendar is the calendar/timezone context shared by every state, day and
// grid of one widget instance. It is immutable after construction.
type Calendar struct {
	loc          *time.Location
	firstWeekday time.Weekday
	now          func() time.Time
}

// Option customizes a Calendar.
type Option func(*Calendar)

// WithClock replaces time.Now as the source of "now" (used by isToday).
func WithClock(now func() time.Time) Option {
	return func(c *Calendar) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a Calendar. A nil location means time.Local.
func New(loc *time.Location, firstWeekday time.Weekday, opts ...Option) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	c := &Calendar{
		loc:          loc,
		firstWeekday: firstWeekday % 7,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the display timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// FirstWeekday returns the week-start convention.
func (c *Calendar) FirstWeekday() time.Weekday { return c.firstWeekday }

// Now returns the current instant from the configured clock.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// Today returns the start of the current day.
func (c *Calendar) Today() time.Time { return c.StartOfDay(c.Now()) }

// StartOfDay returns the first instant of t's day in the calendar location.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return c.midnight(y, m, d)
}

// StartOfMonth returns the first instant of t's month.
func (c *Calendar) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.loc).Date()
	return c.midnight(y, m, 1)
}

// EndOfMonth returns the start of the last day of t's month.
func (c *Calendar) EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.loc).Date()
	return c.midnight(y, m+1, 0)
}

// StartOfWeek returns the first instant of the week containing t.
func (c *Calendar) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) - int(c.firstWeekday) + 7) % 7
	return c.AddDays(day, -offset)
}

// EndOfWeek returns the start of the last day of the week containing t.
func (c *Calendar) EndOfWeek(t time.Time) time.Time {
	return c.AddDays(c.StartOfWeek(t), 6)
}

// AddDays moves t by n civil days and returns the start of that day.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	y, m, d := t.In(c.loc).Date()
	return c.midnight(y, m, d+n)
}

// AddMonths moves the first of t's month by n months.
func (c *Calendar) AddMonths(t time.Time, n int) time.Time {
	y, m, _ := t.In(c.loc).Date()
	return c.midnight(y, m+time.Month(n), 1)
}

// SameDay reports whether a and b fall on the same civil day.
func (c *Calendar) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// Weekdays returns the seven weekdays in display order.
func (c *Calendar) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 7)
	for i := range out {
		out[i] = (c.firstWeekday + time.Weekday(i)) % 7
	}
	return out
}

// midnight returns the first instant of the civil day y-m-d (fields are
// normalized like time.Date). Where a DST gap swallows midnight, time.Date
// may resolve into the previous day; the first instant is then the zone
// transition itself.
func (c *Calendar) midnight(y int, m time.Month, d int) time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	noon := time.Date(y, m, d, 12, 0, 0, 0, c.loc)
	if t.YearDay() != noon.YearDay() {
		if _, end := t.ZoneBounds(); !end.IsZero() {
			return end.In(c.loc)
		}
	}
	return t
}
