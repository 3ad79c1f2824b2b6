// Package today fires a callback when the local day changes, so hosts can
// refresh which cell is marked as today.
package today

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "calpicker/internal/log"
)

// DefaultSpec runs at local midnight.
const DefaultSpec = "0 0 * * *"

// Watcher runs fn on a cron schedule evaluated in a fixed location.
type Watcher struct {
	c        *cron.Cron
	loc      *time.Location
	schedule cron.Schedule
	spec     string
}

// ParseSpec validates a standard five-field cron spec or descriptor.
func ParseSpec(spec string) (cron.Schedule, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("today: invalid cron spec %q: %w", spec, err)
	}
	return s, nil
}

func New(loc *time.Location, spec string, fn func()) (*Watcher, error) {
	if loc == nil {
		loc = time.Local
	}
	if spec == "" {
		spec = DefaultSpec
	}
	schedule, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{}))
	c.Schedule(schedule, cron.FuncJob(func() {
		appLog.Debug("day rollover tick", "spec", spec)
		fn()
	}))
	return &Watcher{c: c, loc: loc, schedule: schedule, spec: spec}, nil
}

// Start runs the scheduler in its own goroutine.
func (w *Watcher) Start() {
	appLog.Info("day rollover watcher started", "spec", w.spec, "location", w.loc.String(), "next", w.NextAfter(time.Now()))
	w.c.Start()
}

// Stop halts the scheduler. The returned context is done once a running
// callback has returned.
func (w *Watcher) Stop() context.Context {
	return w.c.Stop()
}

// NextAfter returns the first activation strictly after t.
func (w *Watcher) NextAfter(t time.Time) time.Time {
	return w.schedule.Next(t.In(w.loc))
}

// cronLogger routes cron's own logging into the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
