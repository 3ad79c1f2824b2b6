package calendar

import (
	"testing"
	"time"
)

func TestWeekGrid(t *testing.T) {
	c := utcSunday()
	s := c.NewState(Week, time.Date(2021, time.November, 14, 0, 0, 0, 0, time.UTC))

	if n := len(DaysPreceding(s)); n != 0 {
		t.Fatalf("preceding = %d, want 0", n)
	}
	if n := len(DaysFollowing(s)); n != 0 {
		t.Fatalf("following = %d, want 0", n)
	}

	days := Days(s)
	if len(days) != 7 {
		t.Fatalf("len = %d, want 7", len(days))
	}
	if got := days[0].Date().Format(time.RFC3339); got != "2021-11-14T00:00:00Z" {
		t.Fatalf("days[0] = %s", got)
	}
	if got := days[6].Date().Format(time.RFC3339); got != "2021-11-20T00:00:00Z" {
		t.Fatalf("days[6] = %s", got)
	}
}

func TestMonthGrid(t *testing.T) {
	c := utcSunday()
	s := c.NewState(Month, time.Date(2021, time.November, 1, 0, 0, 0, 0, time.UTC))

	lead := DaysPreceding(s)
	if len(lead) != 1 || lead[0].String() != "2021-10-31" {
		t.Fatalf("preceding = %v", lead)
	}

	trail := DaysFollowing(s)
	if len(trail) != 4 || trail[0].String() != "2021-12-01" || trail[3].String() != "2021-12-04" {
		t.Fatalf("following = %v", trail)
	}

	days := Days(s)
	if len(days) != 35 {
		t.Fatalf("len = %d, want 35", len(days))
	}
	if days[0].String() != "2021-10-31" || days[34].String() != "2021-12-04" {
		t.Fatalf("grid spans %s..%s", days[0], days[34])
	}
}

func TestMonthGridWithoutPadding(t *testing.T) {
	// February 2015 starts on a Sunday and has 28 days.
	c := utcSunday()
	s := c.NewState(Month, time.Date(2015, time.February, 10, 0, 0, 0, 0, time.UTC))
	if got := len(Days(s)); got != 28 {
		t.Fatalf("len = %d, want 28", got)
	}
	if len(DaysPreceding(s)) != 0 || len(DaysFollowing(s)) != 0 {
		t.Fatalf("expected no padding")
	}
}

func TestMonthGridSixRows(t *testing.T) {
	// May 2021 starts on a Saturday and has 31 days.
	c := utcSunday()
	s := c.NewState(Month, time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC))
	if got := len(Days(s)); got != 42 {
		t.Fatalf("len = %d, want 42", got)
	}
}

func TestIsTodayAcrossGrid(t *testing.T) {
	now := time.Date(2021, time.November, 16, 9, 0, 0, 0, time.UTC)
	c := New(time.UTC, time.Sunday, WithClock(func() time.Time { return now }))
	today := c.StartOfDay(now)

	for _, day := range Days(c.NewState(Month, now)) {
		if day.IsToday() != day.Date().Equal(today) {
			t.Fatalf("isToday mismatch for %s", day)
		}
	}
}

func TestGridCompleteness(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	for _, c := range []*Calendar{utcSunday(), New(time.UTC, time.Monday), New(loc, time.Wednesday)} {
		s := c.NewState(Month, time.Date(2016, time.January, 1, 0, 0, 0, 0, c.Location()))
		for i := 0; i < 12*8; i++ {
			days := Days(s)
			if len(days)%7 != 0 {
				t.Fatalf("%s: len %d not a multiple of 7", s, len(days))
			}
			if days[0].Weekday() != c.FirstWeekday() {
				t.Fatalf("%s: grid starts on %s", s, days[0].Weekday())
			}

			seen := make(map[DayKey]int)
			inMonth := 0
			for j, d := range days {
				seen[d.Key()]++
				if j > 0 && !c.AddDays(days[j-1].Date(), 1).Equal(d.Date()) {
					t.Fatalf("%s: non-consecutive %s after %s", s, d, days[j-1])
				}
				if s.Contains(d.Date()) {
					inMonth++
				}
			}
			last := c.EndOfMonth(s.Anchor()).Day()
			if inMonth != last {
				t.Fatalf("%s: %d in-month days, want %d", s, inMonth, last)
			}
			for k, n := range seen {
				if n != 1 {
					t.Fatalf("%s: %s appears %d times", s, k, n)
				}
			}
			s = s.Next()
		}
	}
}

func TestWeekGridProperties(t *testing.T) {
	c := New(time.UTC, time.Monday)
	s := c.NewState(Week, time.Date(2020, time.December, 30, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 60; i++ {
		days := Days(s)
		if len(days) != 7 {
			t.Fatalf("%s: len %d", s, len(days))
		}
		if !days[0].Date().Equal(s.Anchor()) {
			t.Fatalf("%s: first day %s", s, days[0])
		}
		for j := 1; j < 7; j++ {
			if !c.AddDays(days[j-1].Date(), 1).Equal(days[j].Date()) {
				t.Fatalf("%s: non-consecutive", s)
			}
		}
		s = s.Next()
	}
}

func TestZeroStateHasNoDays(t *testing.T) {
	if Days(State{}) != nil {
		t.Fatalf("expected nil for zero state")
	}
}
