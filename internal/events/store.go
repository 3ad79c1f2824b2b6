package events

import "time"

// Store is an in-memory, start-ordered event list. It is read-only after
// construction and therefore safe for concurrent readers.
type Store struct {
	events []Event
}

func NewStore(evs []Event) *Store {
	s := &Store{events: append([]Event(nil), evs...)}
	sortEvents(s.events)
	return s
}

func (s *Store) Len() int { return len(s.events) }

// Between returns the events overlapping [start, end). Floating all-day
// dates are resolved in start's location.
func (s *Store) Between(start, end time.Time) []Event {
	var out []Event
	loc := start.Location()
	for _, ev := range s.events {
		from, to := ev.Bounds(loc)
		if to.Equal(from) {
			// Zero-length events occupy their instant.
			if !from.Before(start) && from.Before(end) {
				out = append(out, ev)
			}
			continue
		}
		if from.Before(end) && to.After(start) {
			out = append(out, ev)
		}
	}
	return out
}
