package calendar

import (
	"testing"
	"time"
)

func TestNewStateNormalizesAnchor(t *testing.T) {
	c := utcSunday()
	in := time.Date(2021, time.November, 15, 13, 14, 15, 0, time.UTC)

	month := c.NewState(Month, in)
	if got := month.Anchor().Format(time.RFC3339); got != "2021-11-01T00:00:00Z" {
		t.Fatalf("month anchor = %s", got)
	}
	week := c.NewState(Week, in)
	if got := week.Anchor().Format(time.RFC3339); got != "2021-11-14T00:00:00Z" {
		t.Fatalf("week anchor = %s", got)
	}
}

func TestStateEquality(t *testing.T) {
	c := utcSunday()
	d := date(2021, time.November, 15)
	lhs := c.NewState(Month, d)
	rhs := c.NewState(Month, date(2021, time.November, 30))
	other := c.NewState(Week, d)

	if !lhs.Equal(rhs) || lhs.Key() != rhs.Key() {
		t.Fatalf("expected %s == %s", lhs, rhs)
	}
	if lhs.Equal(other) {
		t.Fatalf("expected %s != %s", lhs, other)
	}
}

func TestNormalizationIdempotence(t *testing.T) {
	c := New(time.UTC, time.Monday)
	for _, layout := range []Layout{Month, Week} {
		for d := date(2020, time.January, 1); d.Before(date(2022, time.January, 1)); d = d.AddDate(0, 0, 3) {
			s := c.NewState(layout, d)
			again := c.NewState(layout, s.Anchor())
			if !s.Equal(again) || !s.Anchor().Equal(again.Anchor()) {
				t.Fatalf("%s: re-normalizing anchor changed state to %s", s, again)
			}
		}
	}
}

func TestPrevNextMonth(t *testing.T) {
	c := utcSunday()
	current := c.NewState(Month, date(2021, time.November, 15))

	next := current.Next()
	if next.Layout() != Month || next.Anchor().Format(time.RFC3339) != "2021-12-01T00:00:00Z" {
		t.Fatalf("next = %s", next)
	}
	prev := current.Prev()
	if prev.Layout() != Month || prev.Anchor().Format(time.RFC3339) != "2021-10-01T00:00:00Z" {
		t.Fatalf("prev = %s", prev)
	}
}

func TestPrevNextWeek(t *testing.T) {
	c := utcSunday()
	current := c.NewState(Week, date(2021, time.November, 15))

	if got := current.Next().Anchor().Format(time.RFC3339); got != "2021-11-21T00:00:00Z" {
		t.Fatalf("next = %s", got)
	}
	if got := current.Prev().Anchor().Format(time.RFC3339); got != "2021-11-07T00:00:00Z" {
		t.Fatalf("prev = %s", got)
	}
}

func TestPrevNextAreInverse(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	for _, c := range []*Calendar{utcSunday(), New(loc, time.Monday)} {
		for _, layout := range []Layout{Month, Week} {
			s := c.NewState(layout, time.Date(2019, time.January, 20, 0, 0, 0, 0, c.Location()))
			for i := 0; i < 150; i++ {
				if !s.Next().Prev().Equal(s) {
					t.Fatalf("next.prev != state for %s", s)
				}
				if !s.Prev().Next().Equal(s) {
					t.Fatalf("prev.next != state for %s", s)
				}
				s = s.Next()
			}
		}
	}
}

func TestStepMatchesRepeatedNext(t *testing.T) {
	c := utcSunday()
	s := c.NewState(Month, date(2021, time.January, 31))
	if !s.Step(3).Equal(s.Next().Next().Next()) {
		t.Fatalf("Step(3) mismatch")
	}
	if !s.Step(-2).Equal(s.Prev().Prev()) {
		t.Fatalf("Step(-2) mismatch")
	}
}

func TestRange(t *testing.T) {
	c := utcSunday()

	week := c.NewState(Week, date(2021, time.November, 17)).Range()
	if !week.Start.Equal(date(2021, time.November, 14)) {
		t.Fatalf("week start = %s", week.Start)
	}
	if !week.End.Equal(date(2021, time.November, 21).Add(-time.Nanosecond)) {
		t.Fatalf("week end = %s", week.End)
	}

	month := c.NewState(Month, date(2021, time.November, 17)).Range()
	if !month.Contains(date(2021, time.November, 30).Add(23 * time.Hour)) {
		t.Fatalf("expected last day to be in range")
	}
	if month.Contains(date(2021, time.December, 1)) || month.Contains(date(2021, time.October, 31)) {
		t.Fatalf("month range must not include grid padding")
	}
}

func TestShouldTransitionInPlace(t *testing.T) {
	c := utcSunday()
	nov := c.NewState(Month, date(2021, time.November, 1))

	if !ShouldTransitionInPlace(c.NewState(Week, date(2021, time.November, 15)), nov) {
		t.Fatalf("week inside the month must transition in place")
	}
	if ShouldTransitionInPlace(c.NewState(Week, date(2021, time.January, 1)), nov) {
		t.Fatalf("unrelated week must not transition in place")
	}
	// Oct 31 - Nov 6 straddles both months.
	straddle := c.NewState(Week, date(2021, time.November, 2))
	if !ShouldTransitionInPlace(straddle, c.NewState(Month, date(2021, time.October, 1))) {
		t.Fatalf("straddling week overlaps October")
	}
	if ShouldTransitionInPlace(nov, nov.Next()) {
		t.Fatalf("same layout never transitions in place")
	}
}

func TestParseLayout(t *testing.T) {
	if l, err := ParseLayout(" Week "); err != nil || l != Week {
		t.Fatalf("ParseLayout(week) = %v, %v", l, err)
	}
	if _, err := ParseLayout("year"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStateString(t *testing.T) {
	c := utcSunday()
	if got := c.NewState(Week, date(2021, time.November, 15)).String(); got != "week:2021-11-14" {
		t.Fatalf("String = %q", got)
	}
	if got := (State{}).String(); got != "state(zero)" {
		t.Fatalf("zero String = %q", got)
	}
}

func TestStatesOfToday(t *testing.T) {
	now := time.Date(2021, time.November, 11, 22, 0, 0, 0, time.UTC)
	c := New(time.UTC, time.Monday, WithClock(func() time.Time { return now }))
	if got := c.MonthOfToday().String(); got != "month:2021-11-01" {
		t.Fatalf("month of today = %s", got)
	}
	if got := c.WeekOfToday().String(); got != "week:2021-11-08" {
		t.Fatalf("week of today = %s", got)
	}
}
