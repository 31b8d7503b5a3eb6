package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/draw"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

// palette lists the swatch colours; names resolve through tools.ParseColor.
var palette = []string{"black", "#e53935", "#43a047", "#1e88e5", "#fdd835", "#8e24aa"}

// StrokeOps undoes and clears strokes. Live share swaps in a version that
// also tells the peers.
type StrokeOps interface {
	Undo() bool
	Clear() int
}

// localStrokes works on the whole board when nobody else is drawing.
type localStrokes struct {
	board *state.Board
}

func (s localStrokes) Undo() bool {
	_, ok := s.board.UndoPath("")
	return ok
}

func (s localStrokes) Clear() int { return s.board.ClearPaths("all") }

type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(c string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(tools.ParseColor(s.Color))
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// toolDock is the drawing toolbar: tools, colours, width, undo and view
// controls.
type toolDock struct {
	app     *App
	buttons map[state.ToolID]*widget.Button
}

func newToolDock(a *App) fyne.CanvasObject {
	d := &toolDock{app: a, buttons: make(map[state.ToolID]*widget.Button)}
	engine := a.canvas.Engine()

	toolButton := func(id state.ToolID, label string, icon fyne.Resource) *widget.Button {
		btn := widget.NewButtonWithIcon(label, icon, func() { d.selectTool(id) })
		d.buttons[id] = btn
		return btn
	}
	toolBox := container.NewHBox(
		toolButton(state.ToolPen, "Pen", theme.DocumentCreateIcon()),
		toolButton(state.ToolEraser, "Eraser", theme.ContentClearIcon()),
		toolButton(state.ToolSelect, "Move", theme.ViewRestoreIcon()),
	)
	d.selectTool(engine.Tool())

	onColor := func(c string) {
		engine.SetColor(c)
		if engine.Tool() == state.ToolEraser {
			d.selectTool(state.ToolPen)
		}
	}
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, onColor))
	}

	width := widget.NewSlider(1, 40)
	width.Step = 1
	width.SetValue(a.opts.Pen.Width)
	width.OnChanged = engine.SetWidth
	widthBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(140, 35)), width)

	edit := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { a.strokes.Undo() }),
		widget.NewToolbarAction(theme.DeleteIcon(), a.confirmClear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { a.zoom(1 / draw.ZoomStep) }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), engine.ResetView),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { a.zoom(draw.ZoomStep) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), a.addNote),
		widget.NewToolbarAction(theme.FileTextIcon(), a.addCard),
	)

	return container.NewHBox(
		toolBox,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		widthBox,
		widget.NewSeparator(),
		edit,
		layout.NewSpacer(),
	)
}

func (d *toolDock) selectTool(id state.ToolID) {
	d.app.canvas.Engine().SetTool(id)
	for tid, btn := range d.buttons {
		if tid == id {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}
