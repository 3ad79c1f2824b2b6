// Package events imports calendar events from iCalendar files and lays them
// out on a day grid. The widget core never looks inside an Event.
package events

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calpicker/internal/log"
)

var ErrEmptyCalendar = errors.New("events: empty ICS body")

// Event is one VEVENT. All-day events carry floating dates: Start and End
// hold the calendar date at midnight UTC and End is exclusive.
type Event struct {
	UID      string
	Summary  string
	Location string
	AllDay   bool
	Start    time.Time
	End      time.Time
	// RRule is kept verbatim; recurrences are not expanded, so a series
	// shows as its first instance.
	RRule string
}

// Bounds returns the event as an instant interval in loc.
func (e Event) Bounds(loc *time.Location) (time.Time, time.Time) {
	if !e.AllDay {
		end := e.End
		if end.Before(e.Start) {
			end = e.Start
		}
		return e.Start.In(loc), end.In(loc)
	}
	y, m, d := e.Start.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	y, m, d = e.End.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return start, end
}

// LoadFile reads and parses a local .ics file.
func LoadFile(path string) ([]Event, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("events: read %s: %w", path, err)
	}
	evs, err := ParseICS(body)
	if err != nil {
		return nil, fmt.Errorf("events: %s: %w", path, err)
	}
	return evs, nil
}

// ParseICS parses every VEVENT of an iCalendar payload. Events that cannot
// be read are logged and skipped.
func ParseICS(body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, fmt.Errorf("events: parse: %w", err)
	}

	out := make([]Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "err", perr)
			continue
		}
		out = append(out, ev)
	}
	sortEvents(out)

	appLog.Info("ics parse completed", "event_count", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, fmt.Errorf("uid %s: missing DTSTART", out.UID)
	}
	out.AllDay = isDateValue(dtStart)

	if out.AllDay {
		start, err := parseDate(dtStart.Value)
		if err != nil {
			return out, fmt.Errorf("uid %s: DTSTART: %w", out.UID, err)
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if end, err := parseDate(dtEnd.Value); err == nil && end.After(start) {
				out.End = end
			}
		}
		return out, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("uid %s: DTSTART: %w", out.UID, err)
	}
	out.Start = start
	out.End = start
	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		out.End = end
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) > 8 {
		v = v[:8]
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}

func sortEvents(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		// Longer events first so they claim the upper lanes.
		return a.End.After(b.End)
	})
}
