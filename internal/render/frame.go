package render

import (
	"sync"
	"time"

	"StudyBoard/internal/clock"
)

// FrameInterval is the redraw cadence, roughly one display refresh.
const FrameInterval = 16 * time.Millisecond

// FrameScheduler coalesces redraw requests into at most one render per
// frame. It keeps a single timer handle: a request cancels the pending
// handle and re-arms it for the next frame boundary, so requests made in
// the same frame collapse into one call.
type FrameScheduler struct {
	mu       sync.Mutex
	clock    clock.Clock
	interval time.Duration
	epoch    time.Time
	handle   clock.Timer
	render   func()
	stopped  bool
	frames   int
}

// NewFrameScheduler calls render once per frame in which Request was
// called. render runs on the timer's goroutine.
func NewFrameScheduler(c clock.Clock, interval time.Duration, render func()) *FrameScheduler {
	if c == nil {
		c = clock.Real{}
	}
	if interval <= 0 {
		interval = FrameInterval
	}
	return &FrameScheduler{clock: c, interval: interval, epoch: c.Now(), render: render}
}

// Request asks for a redraw at the next frame boundary.
func (f *FrameScheduler) Request() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	if f.handle != nil {
		f.handle.Stop()
	}
	now := f.clock.Now()
	n := now.Sub(f.epoch)/f.interval + 1
	next := f.epoch.Add(n * f.interval)
	f.handle = f.clock.AfterFunc(next.Sub(now), f.fire)
}

func (f *FrameScheduler) fire() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.handle = nil
	f.frames++
	f.mu.Unlock()
	f.render()
}

// Frames returns how many renders have run.
func (f *FrameScheduler) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

// Stop cancels any pending frame and ignores later requests.
func (f *FrameScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.handle != nil {
		f.handle.Stop()
		f.handle = nil
	}
}
