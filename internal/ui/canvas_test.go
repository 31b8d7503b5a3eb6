package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/clock"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

func newTestCanvas(t *testing.T) (*BoardCanvas, *state.Board) {
	t.Helper()
	test.NewTempApp(t)
	board := state.NewBoard()
	c := NewBoardCanvas(board, tools.NewRegistry(), clock.NewFake(time.Unix(0, 0)))
	c.Resize(fyne.NewSize(400, 300))
	t.Cleanup(c.Close)
	return c, board
}

func press(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y), AbsolutePosition: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y), AbsolutePosition: fyne.NewPos(x, y)}}
}

func TestCanvasCommitsStroke(t *testing.T) {
	c, board := newTestCanvas(t)
	var committed []state.DrawingPath
	c.OnStroke = func(p state.DrawingPath) { committed = append(committed, p) }

	c.MouseDown(press(10, 10))
	for i := float32(1); i <= 4; i++ {
		c.Dragged(drag(10+i*10, 10+i*10))
	}
	c.DragEnd()
	c.MouseUp(press(50, 50))

	paths := board.Paths()
	require.Len(t, paths, 1)
	require.Len(t, committed, 1)
	assert.Equal(t, paths[0].ID, committed[0].ID)
	assert.Equal(t, state.Point{X: 50, Y: 50}, paths[0].Points[len(paths[0].Points)-1])
}

func TestCanvasViewportCenter(t *testing.T) {
	c, board := newTestCanvas(t)
	assert.Equal(t, state.Point{X: 200, Y: 150}, c.ViewportCenter())

	board.SetView(state.ViewState{OffsetX: -100, OffsetY: 50, Zoom: 2})
	assert.Equal(t, state.Point{X: 150, Y: 50}, c.ViewportCenter())
}

func TestEntityOverlayFollowsBoard(t *testing.T) {
	c, board := newTestCanvas(t)
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1", X: 20, Y: 30}, Title: "Cells"}))
	_, err := board.AddStickyNote(state.StickyNote{Entity: state.Entity{X: 100, Y: 100}, Text: "hi"})
	require.NoError(t, err)
	c.syncEntities()

	require.Len(t, c.overlay.Objects, 2)
	card := c.entities["c1"]
	require.NotNil(t, card)
	assert.Equal(t, card, c.overlay.Objects[0])
	assert.Equal(t, fyne.NewPos(20, 30), card.Position())
	assert.Equal(t, fyne.NewSize(state.DefaultCardWidth, state.DefaultCardHeight), card.Size())

	board.SetView(state.ViewState{OffsetX: 10, Zoom: 2})
	c.syncEntities()
	assert.Equal(t, fyne.NewPos(50, 60), card.Position())

	board.Delete("c1")
	c.syncEntities()
	assert.Len(t, c.overlay.Objects, 1)
	assert.Nil(t, c.entities["c1"])
}

func TestEntityDragRespectsThreshold(t *testing.T) {
	c, board := newTestCanvas(t)
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1", X: 20, Y: 30}}))
	c.syncEntities()
	v := c.entities["c1"]
	require.NotNil(t, v)

	v.MouseDown(press(0, 0))
	v.Dragged(drag(3, 0))
	e, _ := board.Entity("c1")
	assert.Equal(t, 20.0, e.X)

	v.Dragged(drag(20, 10))
	v.DragEnd()
	v.MouseUp(press(20, 10))
	e, _ = board.Entity("c1")
	assert.Equal(t, 40.0, e.X)
	assert.Equal(t, 40.0, e.Y)
	assert.False(t, c.drag.Active())
	assert.Empty(t, board.SelectedIDs())
}

func TestEntityClickSelectsOnRelease(t *testing.T) {
	c, board := newTestCanvas(t)
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1", X: 20, Y: 30}}))
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c2", X: 400, Y: 30}}))
	c.syncEntities()
	v1, v2 := c.entities["c1"], c.entities["c2"]

	v1.MouseDown(press(0, 0))
	assert.Empty(t, board.SelectedIDs())
	v1.Dragged(drag(2, 2))
	v1.DragEnd()
	v1.MouseUp(press(2, 2))
	assert.Equal(t, []string{"c1"}, board.SelectedIDs())

	shift := press(0, 0)
	shift.Modifier = fyne.KeyModifierShift
	v2.MouseDown(shift)
	v2.MouseUp(shift)
	assert.Equal(t, []string{"c1", "c2"}, board.SelectedIDs())
}

func TestDraggingSelectedEntityKeepsSelection(t *testing.T) {
	c, board := newTestCanvas(t)
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1", X: 20, Y: 30}}))
	c.syncEntities()
	v := c.entities["c1"]

	v.MouseDown(press(0, 0))
	v.MouseUp(press(0, 0))
	require.Equal(t, []string{"c1"}, board.SelectedIDs())

	v.MouseDown(press(0, 0))
	v.Dragged(drag(20, 0))
	v.Dragged(drag(40, 0))
	v.MouseUp(press(40, 0))
	v.DragEnd()

	e, _ := board.Entity("c1")
	assert.Equal(t, 60.0, e.X)
	assert.Equal(t, []string{"c1"}, board.SelectedIDs())

	// A second click on the only selected entity deselects it.
	v.MouseDown(press(0, 0))
	v.MouseUp(press(0, 0))
	assert.Empty(t, board.SelectedIDs())
}

func TestResizeHandle(t *testing.T) {
	c, board := newTestCanvas(t)
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1", Width: 200, Height: 100}}))
	board.SetView(state.ViewState{Zoom: 2})
	c.syncEntities()
	h := c.entities["c1"].handle

	h.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{AbsolutePosition: fyne.NewPos(410, 210)},
		Dragged:    fyne.Delta{DX: 10, DY: 10},
	})
	h.Dragged(drag(440, 180))
	h.DragEnd()

	e, _ := board.Entity("c1")
	assert.Equal(t, 220.0, e.Width)
	assert.Equal(t, 90.0, e.Height)

	h.Dragged(drag(0, 0))
	h.Dragged(drag(-1000, -1000))
	h.DragEnd()
	e, _ = board.Entity("c1")
	assert.Equal(t, minEntityWidth, e.Width)
	assert.Equal(t, minEntityHeight, e.Height)
}

func TestLocalStrokes(t *testing.T) {
	board := state.NewBoard()
	ops := localStrokes{board: board}
	assert.False(t, ops.Undo())

	board.AddPath(state.DrawingPath{OwnerID: "a", Points: []state.Point{{}, {X: 1}}})
	board.AddPath(state.DrawingPath{OwnerID: "b", Points: []state.Point{{}, {X: 2}}})
	assert.True(t, ops.Undo())
	require.Len(t, board.Paths(), 1)
	assert.Equal(t, "a", board.Paths()[0].OwnerID)

	board.AddPath(state.DrawingPath{OwnerID: "b", Points: []state.Point{{}, {X: 3}}})
	assert.Equal(t, 2, ops.Clear())
	assert.Empty(t, board.Paths())
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "one", lastLines("one", 3))
}
