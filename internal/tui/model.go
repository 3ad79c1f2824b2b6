// Package tui hosts the calendar widget in a terminal with bubbletea. It is
// the widget's rendering collaborator: transitions are drawn by Renderer and
// every widget call happens inside Update.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"calpicker/internal/calendar"
	"calpicker/internal/events"
	appLog "calpicker/internal/log"
	"calpicker/internal/widget"
)

// TodayMsg asks the model to refresh which day is today. Send it from other
// goroutines with tea.Program.Send.
type TodayMsg struct{}

type Options struct {
	Widget widget.Options
	// Store, if set, marks days with events and lists the cursor day's.
	Store *events.Store
	// Animation is the simulated transition length; zero disables it.
	Animation time.Duration
}

type Model struct {
	w      *widget.Widget
	r      *Renderer
	store  *events.Store
	keys   keyMap
	help   help.Model
	styles styles

	// forward receives selection callbacks after the model has handled them.
	forward widget.Delegate

	cursor calendar.Day
	status string
	width  int
	err    error
}

func New(opts Options) (*Model, error) {
	m := &Model{
		r:       NewRenderer(opts.Animation),
		store:   opts.Store,
		keys:    defaultKeys(),
		help:    help.New(),
		styles:  defaultStyles(),
		forward: opts.Widget.Delegate,
	}
	wopts := opts.Widget
	wopts.Delegate = m

	w, err := widget.New(wopts, m.r)
	if err != nil {
		return nil, err
	}
	m.w = w

	start := wopts.InitialDate
	if start.IsZero() {
		start = w.Calendar().Now()
	}
	m.cursor = w.Calendar().Day(start)

	w.Subscribe(func(ev widget.Event) {
		if ev.Kind == widget.EventTodayChanged {
			m.status = "today is " + ev.Today.String()
		}
	})
	return m, nil
}

// Widget exposes the hosted widget, mainly for tests and embedding.
func (m *Model) Widget() *widget.Widget { return m.w }

// Err is the error that stopped the program, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	if err := m.w.Start(); err != nil {
		m.err = err
		return tea.Quit
	}
	return m.r.drain()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case animDoneMsg:
		m.r.finish(msg.seq)

	case TodayMsg:
		m.w.RefreshToday()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		m.handleKey(msg)
	}
	return m, m.r.drain()
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	cal := m.w.Calendar()
	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(cal.AddDays(m.cursor.Date(), -1))
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(cal.AddDays(m.cursor.Date(), 1))
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(cal.AddDays(m.cursor.Date(), -7))
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(cal.AddDays(m.cursor.Date(), 7))
	case key.Matches(msg, m.keys.Prev):
		m.page(-1)
	case key.Matches(msg, m.keys.Next):
		m.page(1)
	case key.Matches(msg, m.keys.Layout):
		m.toggleLayout()
	case key.Matches(msg, m.keys.Today):
		m.cursor = cal.Day(cal.Now())
		m.report(m.w.TransitionToToday(true))
	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelection()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

// moveCursor follows the cursor to another period when it leaves the
// displayed one.
func (m *Model) moveCursor(t time.Time) {
	cal := m.w.Calendar()
	m.cursor = cal.Day(t)
	cur := m.target()
	if cur.IsZero() || cur.Contains(t) {
		return
	}
	m.report(m.w.Transition(cal.NewState(cur.Layout(), t), true))
}

func (m *Model) page(n int) {
	cur := m.target()
	if cur.IsZero() {
		return
	}
	cal := m.w.Calendar()
	to := cur.Step(n)
	if cur.Layout() == calendar.Week {
		m.cursor = cal.Day(cal.AddDays(m.cursor.Date(), 7*n))
	} else {
		// Keep the day of month, clamped to the target month's length.
		first := cal.AddMonths(m.cursor.Date(), n)
		day := m.cursor.Date().Day()
		if last := cal.EndOfMonth(first).Day(); day > last {
			day = last
		}
		m.cursor = cal.DayOf(first.Year(), first.Month(), day)
	}
	if !to.Contains(m.cursor.Date()) {
		m.cursor = cal.Day(to.Anchor())
	}
	m.report(m.w.Transition(to, true))
}

func (m *Model) toggleLayout() {
	cur := m.target()
	if cur.IsZero() {
		return
	}
	layout := calendar.Week
	if cur.Layout() == calendar.Week {
		layout = calendar.Month
	}
	m.report(m.w.SwitchLayout(layout, true))
	if to := m.target(); !to.IsZero() && !to.Contains(m.cursor.Date()) {
		m.cursor = m.w.Calendar().Day(to.Anchor())
	}
}

func (m *Model) toggleSelection() {
	for _, d := range m.w.Selected() {
		if d.Equal(m.cursor) {
			m.w.UserDeselected(m.cursor)
			return
		}
	}
	m.report(m.w.UserSelected(m.cursor))
}

// target is the state being shown, including one still animating in.
func (m *Model) target() calendar.State {
	return m.w.Target()
}

func (m *Model) report(err error) {
	if err != nil {
		appLog.Warn("tui action failed", "err", err)
		m.status = err.Error()
	}
}

func (m *Model) OnSelect(day calendar.Day) {
	m.status = "selected " + day.String()
	if m.forward != nil {
		m.forward.OnSelect(day)
	}
}

func (m *Model) OnDeselect(days []calendar.Day) {
	m.status = fmt.Sprintf("deselected %d day(s)", len(days))
	if m.forward != nil {
		m.forward.OnDeselect(days)
	}
}
