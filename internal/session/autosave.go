package session

import (
	"sync"
	"time"

	"StudyBoard/internal/clock"
)

const DefaultAutosaveDelay = 3 * time.Second

// Autosaver debounces saves: every Touch cancels the pending timer and
// schedules a new one, so save runs once per quiet period.
type Autosaver struct {
	clock clock.Clock
	delay time.Duration
	save  func()

	mu      sync.Mutex
	pending clock.Timer
	stopped bool
}

func NewAutosaver(c clock.Clock, delay time.Duration, save func()) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{clock: c, delay: delay, save: save}
}

// Touch records a change and restarts the quiet period.
func (a *Autosaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.pending != nil {
		a.pending.Stop()
	}
	var t clock.Timer
	t = a.clock.AfterFunc(a.delay, func() {
		a.mu.Lock()
		if a.pending != t {
			a.mu.Unlock()
			return
		}
		a.pending = nil
		a.mu.Unlock()
		a.save()
	})
	a.pending = t
}

// Cancel drops a pending save without stopping the autosaver.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}

// Pending reports whether a save is scheduled.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Stop cancels any pending save; later Touch calls are ignored.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}
