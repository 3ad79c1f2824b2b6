package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"calpicker/internal/calendar"
	"calpicker/internal/cell"
	"calpicker/internal/events"
	"calpicker/internal/paging"
	"calpicker/internal/transition"
)

const cellWidth = 5

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	day      lipgloss.Style
	outside  lipgloss.Style
	today    lipgloss.Style
	selected lipgloss.Style
	status   lipgloss.Style
	event    lipgloss.Style
}

func defaultStyles() styles {
	base := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	return styles{
		title:    lipgloss.NewStyle().Bold(true).MarginBottom(1),
		header:   base.Foreground(lipgloss.Color("244")),
		day:      base,
		outside:  base.Faint(true),
		today:    base.Bold(true).Foreground(lipgloss.Color("212")),
		selected: base.Reverse(true),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		event:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	}
}

func (m *Model) View() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n"
	}
	page := m.r.Page()
	if page == nil {
		return "loading...\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(m.title(page)))
	b.WriteString("\n")

	headers := make([]string, 0, 7)
	for _, s := range m.w.WeekdaySymbols() {
		headers = append(headers, m.styles.header.Render(s))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")

	days := page.Days()
	cells := m.w.Cells(page)
	marks := m.eventMarks(days)
	rows := m.r.rows
	if rows <= 0 || rows*7 > len(days) {
		rows = len(days) / 7
	}
	for row := 0; row < rows; row++ {
		line := make([]string, 0, 7)
		for col := 0; col < 7; col++ {
			i := row*7 + col
			line = append(line, m.renderCell(days[i], cells[i], page, marks[i]))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, line...))
		b.WriteString("\n")
	}

	if agenda := m.agenda(); agenda != "" {
		b.WriteString("\n")
		b.WriteString(agenda)
	}

	status := m.status
	if m.r.Animating() {
		status = "…"
	}
	if status != "" {
		b.WriteString(m.styles.status.Render(status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) title(p *paging.Page) string {
	s := p.State()
	arrow := ""
	if m.r.Animating() {
		arrow = " →"
		if m.r.dir == transition.Backward {
			arrow = " ←"
		}
	}
	if s.Layout() == calendar.Week {
		return "Week of " + s.Anchor().Format("Jan 2, 2006") + arrow
	}
	return s.Anchor().Format("January 2006") + arrow
}

func (m *Model) renderCell(d calendar.Day, c cell.Cell, p *paging.Page, marks int) string {
	label := strconv.Itoa(d.Date().Day())
	inPeriod := p.InPeriod(d)
	selected := p.IsRenderedSelected(d)
	today := d.IsToday()
	if tc, ok := c.(*cell.TextCell); ok {
		label, inPeriod, selected, today = tc.Label, tc.InPeriod, tc.Selected, tc.Today
	}
	if marks > 0 {
		label += "•"
	}

	style := m.styles.day
	switch {
	case selected:
		style = m.styles.selected
	case today:
		style = m.styles.today
	case !inPeriod:
		style = m.styles.outside
	}
	if d.Equal(m.cursor) {
		style = style.Underline(true)
	}
	return style.Render(label)
}

// eventMarks counts event segments per grid cell.
func (m *Model) eventMarks(days []calendar.Day) []int {
	marks := make([]int, len(days))
	if m.store == nil || len(days) == 0 {
		return marks
	}
	cal := m.w.Calendar()
	from := days[0].Date()
	until := cal.AddDays(days[len(days)-1].Date(), 1)
	for _, p := range events.LayoutWeeks(days, m.store.Between(from, until)) {
		for col := p.Column; col < p.Column+p.Span; col++ {
			marks[p.Row*7+col]++
		}
	}
	return marks
}

// agenda lists the events of the cursor day.
func (m *Model) agenda() string {
	if m.store == nil {
		return ""
	}
	cal := m.w.Calendar()
	start := m.cursor.Date()
	evs := m.store.Between(start, cal.AddDays(start, 1))
	if len(evs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ev := range evs {
		when := "all day"
		if !ev.AllDay {
			when = ev.Start.In(cal.Location()).Format("15:04")
		}
		b.WriteString(m.styles.event.Render(when + "  " + ev.Summary))
		b.WriteString("\n")
	}
	return b.String()
}
