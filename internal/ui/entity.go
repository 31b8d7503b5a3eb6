package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

var (
	cardFill       = color.NRGBA{R: 255, G: 255, B: 255, A: 245}
	entityBorder   = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
	selectedBorder = color.NRGBA{R: 30, G: 136, B: 229, A: 255}
)

// Entities cannot be resized below this, in canvas units.
const (
	minEntityWidth  = 80.0
	minEntityHeight = 60.0
)

// entityView draws one card or sticky note. Clicking selects it, dragging
// past the threshold moves it, double clicking a note edits its text.
type entityView struct {
	widget.BaseWidget
	board *BoardCanvas
	id    string
	note  bool

	// Selection is decided on release, once the press is known to be a
	// click rather than a drag.
	pressed    bool
	pressMulti bool

	bg     *canvas.Rectangle
	title  *widget.Label
	body   *widget.Label
	handle *resizeHandle
}

var _ fyne.Draggable = (*entityView)(nil)
var _ fyne.DoubleTappable = (*entityView)(nil)
var _ desktop.Mouseable = (*entityView)(nil)

func newEntityView(b *BoardCanvas, id string, note bool) *entityView {
	v := &entityView{
		board: b,
		id:    id,
		note:  note,
		bg:    canvas.NewRectangle(cardFill),
		title: widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		body:  widget.NewLabel(""),
	}
	v.bg.StrokeColor = entityBorder
	v.bg.StrokeWidth = 1
	v.bg.CornerRadius = 6
	v.title.Truncation = fyne.TextTruncateEllipsis
	v.body.Wrapping = fyne.TextWrapWord
	v.handle = newResizeHandle(v)
	v.ExtendBaseWidget(v)
	return v
}

func (v *entityView) setCard(c state.Card) {
	v.bg.FillColor = cardFill
	v.title.SetText(c.Title)
	v.body.SetText(c.Content)
	v.bg.Refresh()
}

func (v *entityView) setNote(n state.StickyNote) {
	fill := n.Color
	if fill == "" {
		fill = state.DefaultNoteColor
	}
	v.bg.FillColor = tools.ParseColor(fill)
	v.title.Hide()
	v.body.SetText(n.Text)
	v.bg.Refresh()
}

func (v *entityView) setSelected(selected bool) {
	if selected {
		v.bg.StrokeColor, v.bg.StrokeWidth = selectedBorder, 3
	} else {
		v.bg.StrokeColor, v.bg.StrokeWidth = entityBorder, 1
	}
	v.bg.Refresh()
}

func (v *entityView) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewBorder(v.title, nil, nil, nil, v.body)
	corner := container.NewBorder(nil, container.NewHBox(layout.NewSpacer(), v.handle), nil, nil)
	return widget.NewSimpleRenderer(container.NewStack(v.bg, container.NewPadded(content), corner))
}

func (v *entityView) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	ent, ok := v.board.board.Entity(v.id)
	if !ok {
		return
	}
	v.pressed, v.pressMulti = true, e.Modifier&fyne.KeyModifierShift != 0
	v.board.drag.Begin(v.id, point(e.AbsolutePosition), state.Point{X: ent.X, Y: ent.Y})
}

func (v *entityView) MouseUp(*desktop.MouseEvent) {
	d := &v.board.drag
	if d.Active() && d.ID() == v.id {
		if d.Moving() {
			// DragEnd finishes the move.
			return
		}
		d.End()
	}
	v.release(false)
}

func (v *entityView) Dragged(e *fyne.DragEvent) {
	d := &v.board.drag
	if !d.Active() || d.ID() != v.id {
		return
	}
	if pos, moving := d.Update(point(e.AbsolutePosition), v.board.board.View().Zoom); moving {
		v.board.board.Move(v.id, pos.X, pos.Y)
	}
}

func (v *entityView) DragEnd() {
	d := &v.board.drag
	if !d.Active() || d.ID() != v.id {
		return
	}
	_, dragged := d.End()
	v.release(dragged)
}

// release ends a press; a press that never became a drag toggles the
// selection.
func (v *entityView) release(dragged bool) {
	if !v.pressed {
		return
	}
	v.pressed = false
	if !dragged {
		v.board.board.Select(v.id, v.pressMulti)
	}
}

// resizeHandle is the corner grip that resizes its entity.
type resizeHandle struct {
	widget.BaseWidget
	entity *entityView

	active bool
	start  state.Point
	size   state.Point
}

var _ fyne.Draggable = (*resizeHandle)(nil)

func newResizeHandle(v *entityView) *resizeHandle {
	h := &resizeHandle{entity: v}
	h.ExtendBaseWidget(h)
	return h
}

func (h *resizeHandle) CreateRenderer() fyne.WidgetRenderer {
	grip := canvas.NewRectangle(entityBorder)
	grip.CornerRadius = 2
	return widget.NewSimpleRenderer(grip)
}

func (h *resizeHandle) MinSize() fyne.Size { return fyne.NewSize(10, 10) }

func (h *resizeHandle) Dragged(e *fyne.DragEvent) {
	b := h.entity.board.board
	if !h.active {
		ent, ok := b.Entity(h.entity.id)
		if !ok {
			return
		}
		// The first event already carries this move's delta.
		h.active = true
		h.start = state.Point{X: float64(e.AbsolutePosition.X - e.Dragged.DX), Y: float64(e.AbsolutePosition.Y - e.Dragged.DY)}
		h.size = state.Point{X: ent.Width, Y: ent.Height}
	}
	zoom := state.ClampZoom(b.View().Zoom)
	w := h.size.X + (float64(e.AbsolutePosition.X)-h.start.X)/zoom
	ht := h.size.Y + (float64(e.AbsolutePosition.Y)-h.start.Y)/zoom
	b.Resize(h.entity.id, max(w, minEntityWidth), max(ht, minEntityHeight))
}

func (h *resizeHandle) DragEnd() { h.active = false }

func (v *entityView) DoubleTapped(*fyne.PointEvent) {
	if !v.note {
		return
	}
	win := windowFor(v)
	if win == nil {
		return
	}
	entry := widget.NewMultiLineEntry()
	entry.SetText(v.body.Text)
	entry.SetMinRowsVisible(5)
	dialog.ShowForm("Edit note", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok {
				v.board.board.SetNoteText(v.id, entry.Text)
			}
		}, win)
}

func windowFor(o fyne.CanvasObject) fyne.Window {
	app := fyne.CurrentApp()
	if app == nil {
		return nil
	}
	c := app.Driver().CanvasForObject(o)
	for _, w := range app.Driver().AllWindows() {
		if w.Canvas() == c {
			return w
		}
	}
	return nil
}
