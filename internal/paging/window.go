package paging

import (
	"fmt"

	"github.com/teambition/rrule-go"

	"calpicker/internal/calendar"
)

// Window returns the 2*radius+1 consecutive states centered on s, oldest
// first. The anchors are enumerated as a MONTHLY or WEEKLY recurrence
// starting radius periods before s.
func Window(s calendar.State, radius int) ([]calendar.State, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("paging: window of zero state")
	}
	if radius < 0 {
		radius = 0
	}

	freq := rrule.MONTHLY
	if s.Layout() == calendar.Week {
		freq = rrule.WEEKLY
	}
	start := s.Step(-radius)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: start.Anchor(),
		Count:   2*radius + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("paging: window rule: %w", err)
	}

	cal := s.Calendar()
	anchors := r.All()
	out := make([]calendar.State, 0, len(anchors))
	for _, t := range anchors {
		out = append(out, cal.NewState(s.Layout(), t))
	}
	return out, nil
}
