package cell

import (
	"errors"
	"testing"
	"time"

	"calpicker/internal/calendar"
)

func TestRegistryReusesCells(t *testing.T) {
	r := NewRegistry()
	built := 0
	r.Register(KindDefault, func() Cell {
		built++
		return NewTextCell()
	})

	a, err := r.Dequeue(KindDefault)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	r.Enqueue(a)
	if r.Pooled(KindDefault) != 1 {
		t.Fatalf("pooled = %d", r.Pooled(KindDefault))
	}
	b, _ := r.Dequeue(KindDefault)
	if a != b {
		t.Fatalf("expected the pooled cell to be reused")
	}
	if built != 1 {
		t.Fatalf("factory called %d times", built)
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Dequeue("badge"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestTextCellConfigureAndReset(t *testing.T) {
	now := time.Date(2021, time.November, 16, 10, 0, 0, 0, time.UTC)
	c := calendar.New(time.UTC, time.Sunday, calendar.WithClock(func() time.Time { return now }))
	s := c.NewState(calendar.Month, now)

	tc := NewTextCell().(*TextCell)
	tc.Configure(c.DayOf(2021, time.November, 16), s, true)
	if tc.Label != "16" || !tc.InPeriod || !tc.Today || !tc.Selected {
		t.Fatalf("unexpected cell %+v", tc)
	}

	tc.Configure(c.DayOf(2021, time.October, 31), s, false)
	if tc.InPeriod || tc.Today {
		t.Fatalf("padding day flagged wrong: %+v", tc)
	}

	tc.Reset()
	if tc.Label != "" || !tc.Day.IsZero() {
		t.Fatalf("reset left data: %+v", tc)
	}
}
