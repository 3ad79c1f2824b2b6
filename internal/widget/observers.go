package widget

import "calpicker/internal/calendar"

type EventKind int

const (
	// EventStateChanged follows every committed transition.
	EventStateChanged EventKind = iota
	// EventSelectionChanged follows every user selection or deselection.
	EventSelectionChanged
	// EventTodayChanged follows RefreshToday.
	EventTodayChanged
)

func (k EventKind) String() string {
	switch k {
	case EventSelectionChanged:
		return "selection_changed"
	case EventTodayChanged:
		return "today_changed"
	default:
		return "state_changed"
	}
}

type Event struct {
	Kind     EventKind
	State    calendar.State
	Selected []calendar.Day
	Today    calendar.Day
}

type observers struct {
	next  int
	order []int
	subs  map[int]func(Event)
}

func (o *observers) add(fn func(Event)) func() {
	if o.subs == nil {
		o.subs = make(map[int]func(Event))
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	o.order = append(o.order, id)

	return func() {
		if _, ok := o.subs[id]; !ok {
			return
		}
		delete(o.subs, id)
		for i, v := range o.order {
			if v == id {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
}

// publish delivers ev in subscription order. A subscriber added during
// delivery only sees later events.
func (o *observers) publish(ev Event) {
	ids := append([]int(nil), o.order...)
	for _, id := range ids {
		if fn, ok := o.subs[id]; ok {
			fn(ev)
		}
	}
}
