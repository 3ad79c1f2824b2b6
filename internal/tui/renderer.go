package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"calpicker/internal/paging"
	"calpicker/internal/transition"
)

// animDoneMsg ends the animation started with the same seq.
type animDoneMsg struct{ seq int }

// Renderer draws transitions in the terminal. Animations are simulated with
// a tick; the completion is delivered back through Update, so every widget
// call stays on the bubbletea goroutine.
type Renderer struct {
	anim time.Duration

	page      *paging.Page
	rows      int
	dir       transition.Direction
	animating bool
	seq       int
	pending   func()
	cmds      []tea.Cmd
}

func NewRenderer(anim time.Duration) *Renderer {
	return &Renderer{anim: anim}
}

func (r *Renderer) ShowPage(p *paging.Page, dir transition.Direction, animated bool, done func()) {
	r.page = p
	r.rows = p.Rows()
	r.dir = dir
	r.run(animated, done)
}

func (r *Renderer) Relayout(p *paging.Page, rows int, animated bool, done func()) {
	r.page = p
	r.rows = rows
	r.run(animated, done)
}

// Page is the page on screen, possibly mid-animation.
func (r *Renderer) Page() *paging.Page { return r.page }

func (r *Renderer) Animating() bool { return r.animating }

func (r *Renderer) run(animated bool, done func()) {
	r.seq++
	if !animated || r.anim <= 0 {
		r.animating = false
		r.pending = nil
		done()
		return
	}
	seq := r.seq
	r.animating = true
	r.pending = done
	r.cmds = append(r.cmds, tea.Tick(r.anim, func(time.Time) tea.Msg { return animDoneMsg{seq: seq} }))
}

func (r *Renderer) finish(seq int) {
	if seq != r.seq || r.pending == nil {
		return
	}
	done := r.pending
	r.pending = nil
	r.animating = false
	done()
}

// drain returns the commands queued since the last call.
func (r *Renderer) drain() tea.Cmd {
	if len(r.cmds) == 0 {
		return nil
	}
	cmds := r.cmds
	r.cmds = nil
	return tea.Batch(cmds...)
}
