// Package draw turns pointer sequences into committed strokes and camera
// moves. It knows nothing about the UI toolkit: callers translate their
// events into PointerEvent and WheelEvent.
package draw

import (
	"sync"

	"github.com/google/uuid"

	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

type Modifier uint

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// PointerEvent is a pointer position in screen space.
type PointerEvent struct {
	X, Y   float64
	Button Button
	Mods   Modifier
}

// WheelEvent is a scroll at screen position (X, Y).
type WheelEvent struct {
	X, Y   float64
	DX, DY float64
	Mods   Modifier
}

// Mode is the state of the current pointer sequence.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Panning
)

func (m Mode) String() string {
	switch m {
	case Drawing:
		return "drawing"
	case Panning:
		return "panning"
	}
	return "idle"
}

// ZoomStep is the zoom factor applied per wheel notch.
const ZoomStep = 1.1

// Key names the engine reacts to. They match the toolkit's key names.
const (
	KeySpace  = "Space"
	KeyEscape = "Escape"
)

// Surface receives the newest segment of a stroke while it is drawn.
type Surface interface {
	DrawLive(p state.DrawingPath, seg render.Segment, view state.ViewState)
}

// Engine is the drawing and panning state machine for one board.
type Engine struct {
	board   *state.Board
	tools   *tools.Registry
	surface Surface

	mu        sync.Mutex
	origin    state.Point
	ownerID   string
	tool      state.ToolID
	color     string
	width     float64
	spaceHeld bool
	mode      Mode
	current   *state.DrawingPath
	anchor    state.Point
	panStart  state.ViewState
}

// NewEngine returns an idle engine drawing black 3px pen strokes.
func NewEngine(board *state.Board, reg *tools.Registry, surface Surface) *Engine {
	return &Engine{
		board:   board,
		tools:   reg,
		surface: surface,
		tool:    state.ToolPen,
		color:   "#000000",
		width:   3,
	}
}

func (e *Engine) SetTool(id state.ToolID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tool = id
}

func (e *Engine) Tool() state.ToolID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

func (e *Engine) SetColor(c string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.color = c
}

func (e *Engine) SetWidth(w float64) {
	if w <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width = w
}

// SetOrigin records the screen position of the canvas element.
func (e *Engine) SetOrigin(p state.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.origin = p
}

// SetOwner tags strokes with the local participant id.
func (e *Engine) SetOwner(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ownerID = id
}

// SetSpaceHeld toggles the temporary pan modifier.
func (e *Engine) SetSpaceHeld(held bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spaceHeld = held
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// InProgress returns a copy of the stroke being drawn.
func (e *Engine) InProgress() (state.DrawingPath, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return state.DrawingPath{}, false
	}
	p := *e.current
	p.Points = append([]state.Point(nil), p.Points...)
	return p, true
}

func (e *Engine) transform() state.Transform {
	return state.Transform{Origin: e.origin, View: e.board.View()}
}

// PointerDown starts a stroke or a pan.
func (e *Engine) PointerDown(ev PointerEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Idle {
		return
	}
	if ev.Button == ButtonMiddle || e.tool == state.ToolSelect || e.spaceHeld {
		e.mode = Panning
		e.anchor = state.Point{X: ev.X, Y: ev.Y}
		e.panStart = e.board.View()
		return
	}
	if ev.Button != ButtonPrimary || !e.tools.IsDrawing(e.tool) {
		return
	}
	e.mode = Drawing
	e.current = &state.DrawingPath{
		OwnerID:     e.ownerID,
		Points:      []state.Point{e.transform().ScreenToCanvas(ev.X, ev.Y)},
		Color:       e.color,
		StrokeWidth: e.width,
		Tool:        e.tool,
	}
}

// PointerMove extends the stroke, rendering only the new segment, or
// moves the camera while panning.
func (e *Engine) PointerMove(ev PointerEvent) {
	e.mu.Lock()
	switch e.mode {
	case Drawing:
		t := e.transform()
		e.current.Points = append(e.current.Points, t.ScreenToCanvas(ev.X, ev.Y))
		seg, ok := render.LiveSegment(e.current.Points)
		p := *e.current
		e.mu.Unlock()
		if ok && e.surface != nil {
			e.surface.DrawLive(p, seg, t.View)
		}
	case Panning:
		v := e.panStart
		v.OffsetX += ev.X - e.anchor.X
		v.OffsetY += ev.Y - e.anchor.Y
		e.mu.Unlock()
		e.board.SetView(v)
	default:
		e.mu.Unlock()
	}
}

// PointerUp ends the sequence. A stroke with at least two points is
// committed to the board and returned; anything shorter is discarded.
func (e *Engine) PointerUp(PointerEvent) (state.DrawingPath, bool) {
	e.mu.Lock()
	mode, cur := e.mode, e.current
	e.mode, e.current = Idle, nil
	e.mu.Unlock()

	if mode != Drawing || cur == nil || len(cur.Points) < 2 {
		return state.DrawingPath{}, false
	}
	cur.ID = uuid.NewString()
	if !e.board.AddPath(*cur) {
		return state.DrawingPath{}, false
	}
	return *cur, true
}

// Cancel abandons the current sequence without committing anything.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode, e.current = Idle, nil
}

// KeyDown holds space for temporary panning and cancels the current
// sequence on Escape. It reports whether the key was used.
func (e *Engine) KeyDown(key string) bool {
	switch key {
	case KeySpace:
		e.SetSpaceHeld(true)
		return true
	case KeyEscape:
		e.mu.Lock()
		active := e.mode != Idle
		e.mu.Unlock()
		e.Cancel()
		return active
	}
	return false
}

func (e *Engine) KeyUp(key string) {
	if key == KeySpace {
		e.SetSpaceHeld(false)
	}
}

// Wheel zooms around the pointer when Control or Super is held and pans
// otherwise.
func (e *Engine) Wheel(ev WheelEvent) {
	if ev.Mods&(ModControl|ModSuper) == 0 {
		e.board.Pan(ev.DX, ev.DY)
		return
	}
	if ev.DY == 0 {
		return
	}
	factor := ZoomStep
	if ev.DY < 0 {
		factor = 1 / ZoomStep
	}
	e.mu.Lock()
	t := e.transform()
	e.mu.Unlock()
	e.board.SetView(t.ZoomAt(ev.X, ev.Y, factor))
}

// ZoomBy zooms around the centre of a viewport of the given size.
func (e *Engine) ZoomBy(factor, width, height float64) {
	e.mu.Lock()
	t := e.transform()
	e.mu.Unlock()
	e.board.SetView(t.ZoomAt(t.Origin.X+width/2, t.Origin.Y+height/2, factor))
}

// ResetView returns to the identity camera.
func (e *Engine) ResetView() {
	e.board.SetView(state.DefaultView())
}
