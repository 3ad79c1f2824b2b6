package calendar

import "time"

// Days returns the grid for s. A Week grid is the 7 days from the anchor. A
// Month grid is padded to whole weeks: leading pad, every day of the month,
// trailing pad; its length is 28, 35 or 42.
func Days(s State) []Day {
	if s.IsZero() {
		return nil
	}
	c := s.cal
	if s.layout == Week {
		return daysThrough(c, s.anchor, c.AddDays(s.anchor, 6))
	}

	lead := DaysPreceding(s)
	trail := DaysFollowing(s)
	month := daysThrough(c, s.anchor, c.EndOfMonth(s.anchor))

	out := make([]Day, 0, len(lead)+len(month)+len(trail))
	out = append(out, lead...)
	out = append(out, month...)
	out = append(out, trail...)
	return out
}

// DaysPreceding returns the out-of-month days from the start of the week
// containing the 1st up to, not including, the 1st. Empty for Week.
func DaysPreceding(s State) []Day {
	if s.IsZero() || s.layout == Week {
		return nil
	}
	c := s.cal
	first := s.anchor
	return daysUntil(c, c.StartOfWeek(first), first)
}

// DaysFollowing returns the out-of-month days after the last day of the
// month through the end of that week. Empty for Week.
func DaysFollowing(s State) []Day {
	if s.IsZero() || s.layout == Week {
		return nil
	}
	c := s.cal
	last := c.EndOfMonth(s.anchor)
	return daysThrough(c, c.AddDays(last, 1), c.EndOfWeek(last))
}

// daysThrough lists days in [from, through].
func daysThrough(c *Calendar, from, through time.Time) []Day {
	var out []Day
	for d := from; !d.After(through); d = c.AddDays(d, 1) {
		out = append(out, Day{cal: c, date: d})
	}
	return out
}

// daysUntil lists days in [from, until).
func daysUntil(c *Calendar, from, until time.Time) []Day {
	var out []Day
	for d := from; d.Before(until); d = c.AddDays(d, 1) {
		out = append(out, Day{cal: c, date: d})
	}
	return out
}
