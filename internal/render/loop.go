package render

import (
	"image"
	"sync"

	"StudyBoard/internal/clock"
	"StudyBoard/internal/state"
)

// Loop keeps the ink layer in sync with a board. Path, view and restore
// changes request a frame; each frame replays every committed path plus
// the stroke in progress and hands the result to present.
type Loop struct {
	board   *state.Board
	raster  *Raster
	frames  *FrameScheduler
	present func(*image.RGBA)
	cancel  func()

	mu         sync.Mutex
	inProgress func() (state.DrawingPath, bool)
}

// NewLoop subscribes to board. present is called from the frame timer's
// goroutine; UI code must hop to its own thread there.
func NewLoop(board *state.Board, raster *Raster, c clock.Clock, present func(*image.RGBA)) *Loop {
	l := &Loop{board: board, raster: raster, present: present}
	l.frames = NewFrameScheduler(c, FrameInterval, l.render)
	l.cancel = board.Subscribe(func(ch state.Change) {
		switch ch.Kind {
		case state.ChangePath, state.ChangeView, state.ChangeRestore:
			l.frames.Request()
		}
	})
	return l
}

// SetInProgress installs the source of the stroke being drawn, replayed on
// top of the committed paths.
func (l *Loop) SetInProgress(fn func() (state.DrawingPath, bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inProgress = fn
}

// Invalidate requests a full redraw, e.g. after a resize.
func (l *Loop) Invalidate() { l.frames.Request() }

// Resize changes the ink layer size and schedules a redraw.
func (l *Loop) Resize(width, height int) {
	if l.raster.Resize(width, height) {
		l.frames.Request()
	}
}

// DrawLive composites one live segment and presents the layer at once,
// without waiting for a frame.
func (l *Loop) DrawLive(p state.DrawingPath, seg Segment, view state.ViewState) {
	l.raster.DrawLive(p, seg, view)
	if l.present != nil {
		l.present(l.raster.Frame())
	}
}

// Frames returns how many full redraws have run.
func (l *Loop) Frames() int { return l.frames.Frames() }

func (l *Loop) render() {
	snap := l.board.Snapshot()
	paths := snap.Paths
	l.mu.Lock()
	live := l.inProgress
	l.mu.Unlock()
	if live != nil {
		if p, ok := live(); ok {
			paths = append(paths, p)
		}
	}
	l.raster.Redraw(paths, snap.View)
	if l.present != nil {
		l.present(l.raster.Frame())
	}
}

// Close unsubscribes and cancels any pending frame.
func (l *Loop) Close() {
	l.cancel()
	l.frames.Stop()
}
