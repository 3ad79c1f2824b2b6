// Package selection tracks the selected days of a widget and keeps pages'
// rendered highlighting in sync with it.
package selection

import (
	"fmt"
	"sort"
	"strings"

	"calpicker/internal/calendar"
	appLog "calpicker/internal/log"
)

// Mode is the selection policy.
type Mode int

const (
	Single Mode = iota
	Multiple
)

func (m Mode) String() string {
	if m == Multiple {
		return "multiple"
	}
	return "single"
}

// ParseMode maps "single" / "multiple" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "":
		return Single, nil
	case "multiple", "multi":
		return Multiple, nil
	default:
		return Single, fmt.Errorf("selection: unknown mode %q", s)
	}
}

// Target is a rendered unit whose highlighting is synchronized with the
// tracker, typically a *paging.Page.
type Target interface {
	// Range is the period the target displays; only selected days inside
	// it are highlighted.
	Range() calendar.Range
	// RenderedSelected returns the days currently drawn as selected.
	RenderedSelected() []calendar.Day
	// MarkSelected / MarkDeselected report false when the day is not on
	// the target.
	MarkSelected(d calendar.Day) bool
	MarkDeselected(d calendar.Day) bool
}

// Diff is what a reconciliation changed on a target.
type Diff struct {
	Selected   []calendar.Day
	Deselected []calendar.Day
}

// Empty reports whether the reconciliation was a no-op.
func (d Diff) Empty() bool { return len(d.Selected) == 0 && len(d.Deselected) == 0 }

// Tracker is the single source of truth for selected days.
// In Single mode it never holds more than one day.
type Tracker struct {
	mode Mode
	days map[calendar.DayKey]calendar.Day
}

func NewTracker(mode Mode) *Tracker {
	return &Tracker{
		mode: mode,
		days: make(map[calendar.DayKey]calendar.Day),
	}
}

func (t *Tracker) Mode() Mode { return t.mode }

func (t *Tracker) Len() int { return len(t.days) }

// Select adds d. In Single mode the previous selection is replaced and the
// replaced days are returned so callers can report them as deselected.
func (t *Tracker) Select(d calendar.Day) (replaced []calendar.Day) {
	if t.mode == Single {
		for k, prev := range t.days {
			if k == d.Key() {
				continue
			}
			replaced = append(replaced, prev)
			delete(t.days, k)
		}
	}
	t.days[d.Key()] = d
	sortDays(replaced)
	return replaced
}

// Deselect removes d and reports whether it was selected.
func (t *Tracker) Deselect(d calendar.Day) bool {
	if _, ok := t.days[d.Key()]; !ok {
		return false
	}
	delete(t.days, d.Key())
	return true
}

// Clear removes every selected day and returns them in order.
func (t *Tracker) Clear() []calendar.Day {
	out := t.Days()
	t.days = make(map[calendar.DayKey]calendar.Day)
	return out
}

func (t *Tracker) IsSelected(d calendar.Day) bool {
	_, ok := t.days[d.Key()]
	return ok
}

// Days returns the selection in ascending order.
func (t *Tracker) Days() []calendar.Day {
	out := make([]calendar.Day, 0, len(t.days))
	for _, d := range t.days {
		out = append(out, d)
	}
	sortDays(out)
	return out
}

// Within returns the selected days inside r, ascending.
func (t *Tracker) Within(r calendar.Range) []calendar.Day {
	var out []calendar.Day
	for _, d := range t.days {
		if r.Contains(d.Date()) {
			out = append(out, d)
		}
	}
	sortDays(out)
	return out
}

// Reconcile makes the target's rendered selection equal to the tracked
// selection restricted to the target's range. Selecting the missing days
// and deselecting the extra ones are independent steps; no ordering between
// them is relied upon.
func (t *Tracker) Reconcile(target Target) Diff {
	wanted := t.Within(target.Range())
	want := make(map[calendar.DayKey]bool, len(wanted))
	for _, d := range wanted {
		want[d.Key()] = true
	}
	have := make(map[calendar.DayKey]bool)
	for _, d := range target.RenderedSelected() {
		have[d.Key()] = true
	}

	var diff Diff
	for _, d := range wanted {
		if have[d.Key()] {
			continue
		}
		if !target.MarkSelected(d) {
			appLog.Warn("selection: day not on page, cannot highlight", "day", d)
			continue
		}
		diff.Selected = append(diff.Selected, d)
	}
	for _, d := range target.RenderedSelected() {
		if want[d.Key()] {
			continue
		}
		if !target.MarkDeselected(d) {
			appLog.Warn("selection: day not on page, cannot clear highlight", "day", d)
			continue
		}
		diff.Deselected = append(diff.Deselected, d)
	}
	return diff
}

func sortDays(days []calendar.Day) {
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
}
