package calendar

import (
	"fmt"
	"time"
)

// DayKey is the comparable identity of a Day.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// Less orders keys chronologically.
func (k DayKey) Less(o DayKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// Day is one cell of the grid. isToday is derived on every call so it cannot
// go stale.
type Day struct {
	cal  *Calendar
	date time.Time
}

// Day returns the Day containing t.
func (c *Calendar) Day(t time.Time) Day {
	return Day{cal: c, date: c.StartOfDay(t)}
}

// DayOf builds a Day from civil date fields.
func (c *Calendar) DayOf(year int, month time.Month, day int) Day {
	return Day{cal: c, date: c.midnight(year, month, day)}
}

// Date is the first instant of the day.
func (d Day) Date() time.Time { return d.date }

func (d Day) Key() DayKey {
	y, m, dd := d.date.Date()
	return DayKey{Year: y, Month: m, Day: dd}
}

func (d Day) Weekday() time.Weekday { return d.date.Weekday() }

func (d Day) Equal(o Day) bool { return d.Key() == o.Key() }

func (d Day) Before(o Day) bool { return d.Key().Less(o.Key()) }

func (d Day) IsZero() bool { return d.cal == nil }

// IsToday compares the day with the start of "now" in the calendar context.
func (d Day) IsToday() bool {
	if d.cal == nil {
		return false
	}
	return d.date.Equal(d.cal.Today())
}

func (d Day) String() string { return d.date.Format("2006-01-02") }
