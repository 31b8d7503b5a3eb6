package ui

import (
	"context"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"

	"StudyBoard/internal/ai"
	"StudyBoard/internal/clock"
	"StudyBoard/internal/config"
	"StudyBoard/internal/draw"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
	"StudyBoard/internal/translate"
)

// Options wires the application services into the window. Nil services
// hide the controls that need them.
type Options struct {
	Title      string
	Board      *state.Board
	Tools      *tools.Registry
	Clock      clock.Clock
	Owner      string
	Pen        config.PenConfig
	AI         *ai.Client
	Sessions   *session.Manager
	Translator translate.Translator
	SourceLang string
	TargetLang string
	Strokes    StrokeOps
	ShareLink  string
	ExportFont string
}

// App is the StudyBoard window.
type App struct {
	opts    Options
	fyneApp fyne.App
	win     fyne.Window

	canvas  *BoardCanvas
	strokes StrokeOps
	runner  *ai.Runner
	ctx     context.Context
	stop    context.CancelFunc

	status   *widget.Label
	thinking *widget.Label
	aiPanel  *aiPanel
}

func New(opts Options) *App {
	if opts.Title == "" {
		opts.Title = "StudyBoard"
	}
	if opts.Tools == nil {
		opts.Tools = tools.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Pen.Width <= 0 {
		opts.Pen = config.PenConfig{Color: "#000000", Width: 3}
	}

	a := &App{
		opts:     opts,
		fyneApp:  app.NewWithID("io.studyboard.desktop"),
		status:   widget.NewLabel("Ready"),
		thinking: widget.NewLabel(""),
	}
	a.ctx, a.stop = context.WithCancel(context.Background())
	a.win = a.fyneApp.NewWindow(opts.Title)
	a.win.Resize(fyne.NewSize(1280, 800))

	a.canvas = NewBoardCanvas(opts.Board, opts.Tools, opts.Clock)
	engine := a.canvas.Engine()
	engine.SetOwner(opts.Owner)
	engine.SetColor(opts.Pen.Color)
	engine.SetWidth(opts.Pen.Width)

	a.strokes = opts.Strokes
	if a.strokes == nil {
		a.strokes = localStrokes{board: opts.Board}
	}

	if opts.AI != nil {
		merger := ai.NewMerger(opts.Board, ai.DefaultLayout, a.canvas.ViewportCenter)
		a.runner = ai.NewRunner(opts.AI, merger)
		a.aiPanel = newAIPanel(a)
	}
	if opts.Sessions != nil {
		opts.Sessions.OnSaved = func(s session.Session) {
			a.SetStatus(fmt.Sprintf("Saved %q at %s", s.Title, s.UpdatedAt.Format(time.Kitchen)))
		}
	}

	a.win.SetContent(a.layout())
	a.bindKeys()
	a.win.SetOnClosed(a.close)
	return a
}

func (a *App) layout() fyne.CanvasObject {
	top := container.NewVBox(newToolDock(a), newFileBar(a))
	bottom := container.NewHBox(a.status)
	var right fyne.CanvasObject
	if a.aiPanel != nil {
		right = a.aiPanel.object()
	}
	return container.NewBorder(top, bottom, nil, right, a.canvas)
}

func (a *App) bindKeys() {
	engine := a.canvas.Engine()
	if dc, ok := a.win.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if a.win.Canvas().Focused() != nil {
				return
			}
			switch ev.Name {
			case fyne.KeyDelete, fyne.KeyBackspace:
				a.opts.Board.DeleteSelected()
			case fyne.KeyEscape:
				if engine.KeyDown(draw.KeyEscape) {
					a.canvas.CancelStroke()
				} else {
					a.opts.Board.ClearSelection()
				}
			default:
				engine.KeyDown(string(ev.Name))
			}
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			engine.KeyUp(string(ev.Name))
		})
	}
	a.win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { a.strokes.Undo() })
	if a.opts.Sessions != nil {
		a.win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
			func(fyne.Shortcut) { a.saveSession() })
	}
}

// BindShare switches undo/clear to ops and tags new strokes with owner.
// Safe from any goroutine.
func (a *App) BindShare(owner string, ops StrokeOps) {
	fyne.Do(func() {
		a.canvas.Engine().SetOwner(owner)
		if ops == nil {
			ops = localStrokes{board: a.opts.Board}
		}
		a.strokes = ops
	})
}

// SetStatus shows text in the status bar. Safe from any goroutine.
func (a *App) SetStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// ShowError reports err in a dialog. Safe from any goroutine.
func (a *App) ShowError(err error) {
	fyne.Do(func() { dialog.ShowError(err, a.win) })
}

// Run shows the window and blocks until it is closed.
func (a *App) Run() {
	a.win.ShowAndRun()
}

func (a *App) close() {
	log.Println("[UI] Window closed, shutting down")
	a.stop()
	if a.runner != nil {
		a.runner.Close()
	}
	a.canvas.Close()
}

func (a *App) zoom(factor float64) {
	w, h := a.canvas.ViewportSize()
	a.canvas.Engine().ZoomBy(factor, w, h)
}

func (a *App) confirmClear() {
	dialog.ShowConfirm("Clear strokes", "Remove your strokes from the board?", func(ok bool) {
		if ok {
			n := a.strokes.Clear()
			a.SetStatus(fmt.Sprintf("Cleared %d strokes", n))
		}
	}, a.win)
}

func (a *App) addNote() {
	c := a.canvas.ViewportCenter()
	n, err := a.opts.Board.AddStickyNote(state.StickyNote{
		Entity: state.Entity{X: c.X - state.DefaultNoteWidth/2, Y: c.Y - state.DefaultNoteHeight/2},
	})
	if err != nil {
		dialog.ShowError(err, a.win)
		return
	}
	a.opts.Board.Select(n.ID, false)
}

func (a *App) addCard() {
	title := widget.NewEntry()
	content := widget.NewMultiLineEntry()
	content.SetMinRowsVisible(6)
	dialog.ShowForm("New card", "Add", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Title", title),
		widget.NewFormItem("Content", content),
	}, func(ok bool) {
		if !ok {
			return
		}
		c := a.canvas.ViewportCenter()
		err := a.opts.Board.AddCard(state.Card{
			Entity:  state.Entity{ID: "card-" + uuid.NewString(), X: c.X - state.DefaultCardWidth/2, Y: c.Y - state.DefaultCardHeight/2},
			Title:   title.Text,
			Content: content.Text,
			Kind:    "manual",
		})
		if err != nil {
			dialog.ShowError(err, a.win)
		}
	}, a.win)
}
