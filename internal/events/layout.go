package events

import (
	"time"

	"calpicker/internal/calendar"
)

// Placement is one week-row segment of an event on a day grid.
type Placement struct {
	Event  Event
	Row    int
	Column int
	Span   int
	// Lane is the vertical slot inside the row. Segments sharing a row and
	// a column never share a lane.
	Lane int
	// ContinuesBefore / ContinuesAfter mark segments cut by a row edge.
	ContinuesBefore bool
	ContinuesAfter  bool
}

// LayoutWeeks splits events into per-row segments over days, a grid of whole
// weeks as returned by calendar.Days. Events not touching the grid are
// ignored.
func LayoutWeeks(days []calendar.Day, evs []Event) []Placement {
	if len(days) < 7 {
		return nil
	}
	loc := days[0].Date().Location()
	rows := len(days) / 7

	index := make(map[calendar.DayKey]int, len(days))
	for i, d := range days {
		index[d.Key()] = i
	}
	gridFirst := days[0].Key()
	gridLast := days[rows*7-1].Key()

	sorted := append([]Event(nil), evs...)
	sortEvents(sorted)

	// lanes[row][lane] is the last column occupied in that lane.
	lanes := make([][]int, rows)
	var out []Placement

	for _, ev := range sorted {
		first, last := dayRange(ev, loc)
		if last.Less(gridFirst) || gridLast.Less(first) {
			continue
		}
		if first.Less(gridFirst) {
			first = gridFirst
		}
		if gridLast.Less(last) {
			last = gridLast
		}
		from, to := index[first], index[last]

		for row := from / 7; row <= to/7; row++ {
			startCol, endCol := 0, 6
			if row == from/7 {
				startCol = from % 7
			}
			if row == to/7 {
				endCol = to % 7
			}
			lane := claimLane(&lanes[row], startCol, endCol)
			out = append(out, Placement{
				Event:           ev,
				Row:             row,
				Column:          startCol,
				Span:            endCol - startCol + 1,
				Lane:            lane,
				ContinuesBefore: row > from/7 || firstDayBefore(ev, loc, gridFirst),
				ContinuesAfter:  row < to/7 || lastDayAfter(ev, loc, gridLast),
			})
		}
	}
	return out
}

func claimLane(lanes *[]int, startCol, endCol int) int {
	for i, end := range *lanes {
		if end < startCol {
			(*lanes)[i] = endCol
			return i
		}
	}
	*lanes = append(*lanes, endCol)
	return len(*lanes) - 1
}

// dayRange returns the first and last day the event touches, inclusive.
func dayRange(ev Event, loc *time.Location) (calendar.DayKey, calendar.DayKey) {
	start, end := ev.Bounds(loc)
	lastInstant := start
	if end.After(start) {
		lastInstant = end.Add(-time.Nanosecond)
	}
	return keyOf(start), keyOf(lastInstant)
}

func keyOf(t time.Time) calendar.DayKey {
	y, m, d := t.Date()
	return calendar.DayKey{Year: y, Month: m, Day: d}
}

func firstDayBefore(ev Event, loc *time.Location, k calendar.DayKey) bool {
	first, _ := dayRange(ev, loc)
	return first.Less(k)
}

func lastDayAfter(ev Event, loc *time.Location, k calendar.DayKey) bool {
	_, last := dayRange(ev, loc)
	return k.Less(last)
}
