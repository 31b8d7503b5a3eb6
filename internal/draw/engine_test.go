package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

type recordingSurface struct {
	segs []render.Segment
}

func (s *recordingSurface) DrawLive(_ state.DrawingPath, seg render.Segment, _ state.ViewState) {
	s.segs = append(s.segs, seg)
}

func newEngine() (*Engine, *state.Board, *recordingSurface) {
	b := state.NewBoard()
	s := &recordingSurface{}
	return NewEngine(b, tools.NewRegistry(), s), b, s
}

func TestPenStrokeIsCommitted(t *testing.T) {
	e, b, s := newEngine()

	e.PointerDown(PointerEvent{X: 10, Y: 10})
	assert.Equal(t, Drawing, e.Mode())
	for i := 1; i <= 4; i++ {
		e.PointerMove(PointerEvent{X: 10 + float64(i)*10, Y: 10 + float64(i)*10})
	}
	p, ok := e.PointerUp(PointerEvent{X: 50, Y: 50})
	require.True(t, ok)

	paths := b.Paths()
	require.Len(t, paths, 1)
	assert.Equal(t, p.ID, paths[0].ID)
	assert.Equal(t, state.Point{X: 10, Y: 10}, paths[0].Points[0])
	assert.Equal(t, state.Point{X: 50, Y: 50}, paths[0].Points[len(paths[0].Points)-1])
	assert.Equal(t, state.ToolPen, paths[0].Tool)
	assert.Len(t, s.segs, 4)
	assert.Equal(t, Idle, e.Mode())
}

func TestStrayClickIsDiscarded(t *testing.T) {
	e, b, _ := newEngine()
	e.PointerDown(PointerEvent{X: 10, Y: 10})
	_, ok := e.PointerUp(PointerEvent{X: 10, Y: 10})
	assert.False(t, ok)
	assert.Empty(t, b.Paths())
}

func TestStrokeUsesCanvasSpace(t *testing.T) {
	e, b, _ := newEngine()
	b.SetView(state.ViewState{OffsetX: 100, OffsetY: 50, Zoom: 2})
	e.SetOrigin(state.Point{X: 10, Y: 10})

	e.PointerDown(PointerEvent{X: 110, Y: 60})
	e.PointerMove(PointerEvent{X: 130, Y: 80})
	e.PointerUp(PointerEvent{})

	pts := b.Paths()[0].Points
	assert.Equal(t, state.Point{X: 0, Y: 0}, pts[0])
	assert.Equal(t, state.Point{X: 10, Y: 10}, pts[1])
}

func TestEraserStroke(t *testing.T) {
	e, b, _ := newEngine()
	e.SetTool(state.ToolEraser)
	e.SetWidth(5)
	e.PointerDown(PointerEvent{})
	e.PointerMove(PointerEvent{X: 5})
	e.PointerUp(PointerEvent{})

	p := b.Paths()[0]
	assert.Equal(t, state.ToolEraser, p.Tool)
	assert.Equal(t, 5.0, p.StrokeWidth)
}

func TestSelectToolPans(t *testing.T) {
	e, b, s := newEngine()
	e.SetTool(state.ToolSelect)

	e.PointerDown(PointerEvent{X: 100, Y: 100})
	assert.Equal(t, Panning, e.Mode())
	e.PointerMove(PointerEvent{X: 130, Y: 90})
	e.PointerMove(PointerEvent{X: 150, Y: 80})
	e.PointerUp(PointerEvent{})

	assert.Equal(t, state.ViewState{OffsetX: 50, OffsetY: -20, Zoom: 1}, b.View())
	assert.Empty(t, b.Paths())
	assert.Empty(t, s.segs)
}

func TestSpaceAndMiddleButtonPan(t *testing.T) {
	e, b, _ := newEngine()
	e.SetSpaceHeld(true)
	e.PointerDown(PointerEvent{})
	e.PointerMove(PointerEvent{X: 10})
	e.PointerUp(PointerEvent{})
	assert.Equal(t, 10.0, b.View().OffsetX)

	e.SetSpaceHeld(false)
	e.PointerDown(PointerEvent{Button: ButtonMiddle})
	assert.Equal(t, Panning, e.Mode())
	e.PointerMove(PointerEvent{Y: 7})
	e.PointerUp(PointerEvent{})
	assert.Equal(t, state.ViewState{OffsetX: 10, OffsetY: 7, Zoom: 1}, b.View())
	assert.Empty(t, b.Paths())
}

func TestPanAndDrawAreExclusive(t *testing.T) {
	e, b, _ := newEngine()
	e.PointerDown(PointerEvent{})
	e.PointerDown(PointerEvent{Button: ButtonMiddle})
	assert.Equal(t, Drawing, e.Mode())
	e.PointerMove(PointerEvent{X: 20})
	e.PointerUp(PointerEvent{})
	assert.Equal(t, state.DefaultView(), b.View())
	assert.Len(t, b.Paths(), 1)
}

func TestSecondaryButtonDoesNothing(t *testing.T) {
	e, _, _ := newEngine()
	e.PointerDown(PointerEvent{Button: ButtonSecondary})
	assert.Equal(t, Idle, e.Mode())
}

func TestWheel(t *testing.T) {
	e, b, _ := newEngine()
	e.Wheel(WheelEvent{DX: 3, DY: -4})
	assert.Equal(t, state.ViewState{OffsetX: 3, OffsetY: -4, Zoom: 1}, b.View())

	for i := 0; i < 50; i++ {
		e.Wheel(WheelEvent{X: 200, Y: 200, DY: 1, Mods: ModControl})
	}
	assert.Equal(t, state.MaxZoom, b.View().Zoom)

	for i := 0; i < 100; i++ {
		e.Wheel(WheelEvent{X: 200, Y: 200, DY: -1, Mods: ModSuper})
	}
	assert.Equal(t, state.MinZoom, b.View().Zoom)
}

func TestInProgressAndCancel(t *testing.T) {
	e, b, _ := newEngine()
	_, ok := e.InProgress()
	assert.False(t, ok)

	e.PointerDown(PointerEvent{X: 1})
	e.PointerMove(PointerEvent{X: 2})
	p, ok := e.InProgress()
	require.True(t, ok)
	assert.Len(t, p.Points, 2)

	e.Cancel()
	_, ok = e.PointerUp(PointerEvent{})
	assert.False(t, ok)
	assert.Empty(t, b.Paths())
}

func TestKeys(t *testing.T) {
	e, b, _ := newEngine()

	assert.True(t, e.KeyDown(KeySpace))
	e.PointerDown(PointerEvent{})
	assert.Equal(t, Panning, e.Mode())
	e.PointerUp(PointerEvent{})
	e.KeyUp(KeySpace)

	e.PointerDown(PointerEvent{X: 1})
	e.PointerMove(PointerEvent{X: 9})
	assert.True(t, e.KeyDown(KeyEscape))
	assert.Equal(t, Idle, e.Mode())
	_, ok := e.PointerUp(PointerEvent{X: 9})
	assert.False(t, ok)
	assert.Empty(t, b.Paths())

	assert.False(t, e.KeyDown(KeyEscape))
	assert.False(t, e.KeyDown("A"))
}
