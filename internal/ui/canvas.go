package ui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/clock"
	"StudyBoard/internal/draw"
	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

var paper = color.NRGBA{R: 250, G: 250, B: 248, A: 255}

// BoardCanvas is the drawing surface: a raster ink layer fed by the render
// loop with the card and note widgets laid over it.
type BoardCanvas struct {
	widget.BaseWidget

	board  *state.Board
	engine *draw.Engine
	loop   *render.Loop

	ink      *canvas.Image
	overlay  *fyne.Container
	entities map[string]*entityView
	drag     state.DragTracker
	cancel   func()

	// OnStroke runs after a local stroke is committed.
	OnStroke func(state.DrawingPath)

	mu   sync.Mutex
	size fyne.Size
}

var _ fyne.Widget = (*BoardCanvas)(nil)
var _ fyne.Draggable = (*BoardCanvas)(nil)
var _ fyne.Scrollable = (*BoardCanvas)(nil)
var _ desktop.Mouseable = (*BoardCanvas)(nil)
var _ desktop.Hoverable = (*BoardCanvas)(nil)

func NewBoardCanvas(board *state.Board, reg *tools.Registry, c clock.Clock) *BoardCanvas {
	b := &BoardCanvas{
		board:    board,
		ink:      canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))),
		overlay:  container.NewWithoutLayout(),
		entities: make(map[string]*entityView),
	}
	b.ink.FillMode = canvas.ImageFillStretch
	b.ink.ScaleMode = canvas.ImageScalePixels

	raster := render.NewRaster(reg, 1, 1)
	b.loop = render.NewLoop(board, raster, c, b.present)
	b.engine = draw.NewEngine(board, reg, b.loop)
	b.loop.SetInProgress(b.engine.InProgress)

	b.cancel = board.Subscribe(func(ch state.Change) {
		switch ch.Kind {
		case state.ChangeEntity, state.ChangeSelection, state.ChangeView, state.ChangeRestore:
			fyne.Do(b.syncEntities)
		}
	})
	b.ExtendBaseWidget(b)
	return b
}

// Engine exposes the drawing state machine for the tool dock.
func (b *BoardCanvas) Engine() *draw.Engine { return b.engine }

func (b *BoardCanvas) present(frame *image.RGBA) {
	fyne.Do(func() {
		b.ink.Image = frame
		b.ink.Refresh()
	})
}

// Resize keeps the ink layer at the widget's size.
func (b *BoardCanvas) Resize(size fyne.Size) {
	b.BaseWidget.Resize(size)
	b.mu.Lock()
	b.size = size
	b.mu.Unlock()
	b.loop.Resize(int(size.Width), int(size.Height))
	b.syncEntities()
}

// ViewportCenter returns the canvas point at the centre of the visible
// area. It is safe to call from any goroutine.
func (b *BoardCanvas) ViewportCenter() state.Point {
	b.mu.Lock()
	size := b.size
	b.mu.Unlock()
	t := state.Transform{View: b.board.View()}
	return t.ViewportCenter(float64(size.Width), float64(size.Height))
}

// ViewportSize returns the size of the visible area.
func (b *BoardCanvas) ViewportSize() (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.size.Width), float64(b.size.Height)
}

func (b *BoardCanvas) transform() state.Transform {
	return state.Transform{View: b.board.View()}
}

func (b *BoardCanvas) MouseDown(e *desktop.MouseEvent) {
	b.board.ClearSelection()
	b.engine.PointerDown(pointer(e.Position, e.Button, e.Modifier))
}

func (b *BoardCanvas) MouseUp(e *desktop.MouseEvent) {
	b.finish(pointer(e.Position, e.Button, e.Modifier))
}

// MouseMoved only matters for middle-button panning; primary drags arrive
// through Dragged.
func (b *BoardCanvas) MouseMoved(e *desktop.MouseEvent) {
	if e.Button&desktop.MouseButtonTertiary != 0 && b.engine.Mode() == draw.Panning {
		b.engine.PointerMove(pointer(e.Position, e.Button, e.Modifier))
	}
}

func (b *BoardCanvas) MouseIn(*desktop.MouseEvent) {}

func (b *BoardCanvas) MouseOut() {}

func (b *BoardCanvas) Dragged(e *fyne.DragEvent) {
	b.engine.PointerMove(pointer(e.Position, desktop.MouseButtonPrimary, 0))
}

func (b *BoardCanvas) DragEnd() {
	b.finish(draw.PointerEvent{})
}

func (b *BoardCanvas) finish(ev draw.PointerEvent) {
	if p, ok := b.engine.PointerUp(ev); ok && b.OnStroke != nil {
		b.OnStroke(p)
	}
}

func (b *BoardCanvas) Scrolled(e *fyne.ScrollEvent) {
	b.engine.Wheel(wheel(e, currentModifiers()))
}

// CancelStroke drops the stroke in progress and redraws without it.
func (b *BoardCanvas) CancelStroke() {
	b.engine.Cancel()
	b.loop.Invalidate()
}

// syncEntities lays the entity widgets out over the ink layer. Notes stay
// above cards. Must run on the UI goroutine.
func (b *BoardCanvas) syncEntities() {
	t := b.transform()
	zoom := t.View.Zoom
	seen := make(map[string]bool)
	objects := make([]fyne.CanvasObject, 0, len(b.entities))

	place := func(id string, e state.Entity, note bool, update func(*entityView)) {
		seen[id] = true
		v, ok := b.entities[id]
		if !ok {
			v = newEntityView(b, id, note)
			b.entities[id] = v
		}
		update(v)
		v.setSelected(e.Selected)
		x, y := t.CanvasToScreen(state.Point{X: e.X, Y: e.Y})
		v.Move(fyne.NewPos(float32(x), float32(y)))
		v.Resize(fyne.NewSize(float32(e.Width*zoom), float32(e.Height*zoom)))
		objects = append(objects, v)
	}
	for _, c := range b.board.Cards() {
		place(c.ID, c.Entity, false, func(v *entityView) { v.setCard(c) })
	}
	for _, n := range b.board.StickyNotes() {
		place(n.ID, n.Entity, true, func(v *entityView) { v.setNote(n) })
	}
	for id := range b.entities {
		if !seen[id] {
			delete(b.entities, id)
		}
	}
	b.overlay.Objects = objects
	b.overlay.Refresh()
}

func (b *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(paper)
	return widget.NewSimpleRenderer(container.NewStack(bg, b.ink, b.overlay))
}

func (b *BoardCanvas) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

// Close stops rendering and detaches from the board.
func (b *BoardCanvas) Close() {
	b.cancel()
	b.loop.Close()
}

func currentModifiers() fyne.KeyModifier {
	app := fyne.CurrentApp()
	if app == nil {
		return 0
	}
	if d, ok := app.Driver().(desktop.Driver); ok {
		return d.CurrentKeyModifiers()
	}
	return 0
}
