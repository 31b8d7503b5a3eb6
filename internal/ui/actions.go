package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"StudyBoard/internal/ai"
	"StudyBoard/internal/export"
	"StudyBoard/internal/session"
	"StudyBoard/internal/translate"
)

const requestTimeout = 30 * time.Second

// newFileBar holds session, export, translate and share controls.
func newFileBar(a *App) fyne.CanvasObject {
	bar := container.NewHBox()
	if a.opts.Sessions != nil {
		bar.Add(widget.NewButtonWithIcon("New", theme.DocumentIcon(), a.newSession))
		bar.Add(widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), a.openSessions))
		bar.Add(widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), a.saveSession))
	}
	bar.Add(widget.NewButtonWithIcon("Export PDF", theme.DocumentPrintIcon(), a.exportPDF))
	if a.opts.Translator != nil {
		bar.Add(widget.NewButtonWithIcon("Translate notes", theme.MailForwardIcon(), a.translateNotes))
	}
	if link := a.opts.ShareLink; link != "" {
		bar.Add(widget.NewSeparator())
		bar.Add(widget.NewLabel("Share: " + link))
		bar.Add(widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			a.win.Clipboard().SetContent(link)
			a.SetStatus("Share link copied")
		}))
	}
	return bar
}

// background runs fn off the UI goroutine with a bounded context.
func (a *App) background(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (a *App) saveSession() {
	a.SetStatus("Saving...")
	a.background(func(ctx context.Context) {
		if _, err := a.opts.Sessions.Save(ctx); err != nil {
			a.SetStatus("Save failed")
			a.ShowError(fmt.Errorf("save board: %w", err))
		}
	})
}

func (a *App) newSession() {
	dialog.ShowConfirm("New board", "Start an empty board? Unsaved changes are lost.", func(ok bool) {
		if ok {
			a.opts.Sessions.New()
			a.SetStatus("New board")
		}
	}, a.win)
}

func (a *App) openSessions() {
	a.background(func(ctx context.Context) {
		list, err := a.opts.Sessions.List(ctx)
		if err != nil {
			a.ShowError(err)
			return
		}
		fyne.Do(func() { a.showSessionList(list) })
	})
}

func (a *App) showSessionList(list []session.Summary) {
	if len(list) == 0 {
		dialog.ShowInformation("Open board", "No saved boards yet.", a.win)
		return
	}
	selected := -1
	items := widget.NewList(
		func() int { return len(list) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			s := list[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%s  ·  %s  ·  %d strokes, %d cards, %d notes",
				s.Title, s.UpdatedAt.Format("Jan 2 15:04"), s.Paths, s.Cards, s.StickyNotes))
		},
	)
	items.OnSelected = func(i widget.ListItemID) { selected = i }

	var d dialog.Dialog
	open := widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), func() {
		if selected < 0 {
			return
		}
		id := list[selected].ID
		d.Hide()
		a.background(func(ctx context.Context) {
			if err := a.opts.Sessions.Load(ctx, id); err != nil {
				a.ShowError(fmt.Errorf("open board: %w", err))
				return
			}
			a.SetStatus("Opened board")
		})
	})
	del := widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		if selected < 0 {
			return
		}
		s := list[selected]
		dialog.ShowConfirm("Delete board", fmt.Sprintf("Delete %q?", s.Title), func(ok bool) {
			if !ok {
				return
			}
			d.Hide()
			a.background(func(ctx context.Context) {
				if err := a.opts.Sessions.Delete(ctx, s.ID); err != nil {
					a.ShowError(fmt.Errorf("delete board: %w", err))
					return
				}
				a.SetStatus("Deleted " + s.Title)
			})
		}, a.win)
	})
	body := container.NewBorder(nil, container.NewHBox(open, del), nil, nil, items)
	d = dialog.NewCustom("Open board", "Close", body, a.win)
	d.Resize(fyne.NewSize(560, 420))
	d.Show()
}

func (a *App) exportPDF() {
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.win)
			return
		}
		if w == nil {
			return
		}
		snap := a.opts.Board.Snapshot()
		go func() {
			defer w.Close()
			if err := export.Write(w, snap, export.Options{Title: a.opts.Title, Tools: a.opts.Tools, Font: a.opts.ExportFont}); err != nil {
				a.ShowError(fmt.Errorf("export: %w", err))
				return
			}
			a.SetStatus("Exported " + w.URI().Name())
		}()
	}, a.win)
	save.SetFileName("board.pdf")
	save.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	save.Show()
}

func (a *App) translateNotes() {
	if len(a.opts.Board.SelectedNotes()) == 0 {
		dialog.ShowInformation("Translate", "Select the sticky notes to translate first.", a.win)
		return
	}
	a.SetStatus("Translating...")
	a.background(func(ctx context.Context) {
		n, err := translate.Notes(ctx, a.opts.Board, a.opts.Translator, a.opts.SourceLang, a.opts.TargetLang)
		if err != nil {
			a.ShowError(err)
		}
		a.SetStatus(fmt.Sprintf("Translated %d notes", n))
	})
}

// aiPanel is the side panel driving generate and action requests.
type aiPanel struct {
	app      *App
	prompt   *widget.Entry
	count    *widget.Select
	generate *widget.Button
	actions  []*widget.Button
	progress *widget.ProgressBarInfinite
}

func newAIPanel(a *App) *aiPanel {
	p := &aiPanel{
		app:      a,
		prompt:   widget.NewMultiLineEntry(),
		progress: widget.NewProgressBarInfinite(),
	}
	p.prompt.SetPlaceHolder("Topic to generate cards about")
	p.prompt.SetMinRowsVisible(3)

	counts := make([]string, ai.MaxGenerateCount)
	for i := range counts {
		counts[i] = strconv.Itoa(i + 1)
	}
	p.count = widget.NewSelect(counts, nil)
	p.count.SetSelected("4")
	p.generate = widget.NewButtonWithIcon("Generate", theme.MediaPlayIcon(), p.runGenerate)

	for _, act := range []ai.Action{ai.Summarize, ai.ActionPoints, ai.MindMap, ai.Flashcards} {
		p.actions = append(p.actions, widget.NewButton(act.Title(), func() { p.runAction(act) }))
	}
	p.progress.Hide()
	a.thinking.Wrapping = fyne.TextWrapWord
	a.thinking.TextStyle = fyne.TextStyle{Italic: true}

	a.runner.OnBusy = func(kind ai.Kind, busy bool) { fyne.Do(func() { p.setBusy(kind, busy) }) }
	a.runner.OnThinking = func(_ ai.Kind, text string) {
		fyne.Do(func() { a.thinking.SetText(lastLines(text, 6)) })
	}
	a.runner.OnError = func(kind ai.Kind, err error) {
		a.ShowError(fmt.Errorf("%s: %w", kind, err))
	}
	return p
}

func (p *aiPanel) object() fyne.CanvasObject {
	actions := container.NewGridWithColumns(2)
	for _, b := range p.actions {
		actions.Add(b)
	}
	box := container.NewVBox(
		widget.NewLabelWithStyle("Generate", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		p.prompt,
		container.NewBorder(nil, nil, widget.NewLabel("Cards"), nil, p.count),
		p.generate,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("On selection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		actions,
		p.progress,
		p.app.thinking,
	)
	return container.NewGridWrap(fyne.NewSize(280, 600), container.NewVScroll(box))
}

func (p *aiPanel) setBusy(kind ai.Kind, busy bool) {
	buttons := []*widget.Button{p.generate}
	if kind == ai.KindAction {
		buttons = p.actions
	}
	for _, b := range buttons {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
	if busy {
		p.app.thinking.SetText("")
		p.progress.Show()
		p.progress.Start()
	} else if !p.app.runner.Busy(ai.KindGenerate) && !p.app.runner.Busy(ai.KindAction) {
		p.progress.Stop()
		p.progress.Hide()
	}
}

func (p *aiPanel) runGenerate() {
	n, _ := strconv.Atoi(p.count.Selected)
	req := ai.GenerateRequest{Prompt: strings.TrimSpace(p.prompt.Text), Count: n}
	p.app.runner.Start(func(ctx context.Context) {
		res, err := p.app.runner.Generate(ctx, req)
		p.report(res, err)
	})
}

func (p *aiPanel) runAction(act ai.Action) {
	contents := p.app.opts.Board.SelectedContents()
	if len(contents) == 0 {
		dialog.ShowInformation(act.Title(), fmt.Sprintf("Select up to %d cards or notes first.", ai.MaxActionInputs), p.app.win)
		return
	}
	req := ai.ActionRequest{Action: act, Contents: contents}
	p.app.runner.Start(func(ctx context.Context) {
		res, err := p.app.runner.Action(ctx, req)
		p.report(res, err)
	})
}

// report surfaces failures the runner does not already route to OnError.
func (p *aiPanel) report(res *ai.Result, err error) {
	switch {
	case err == nil:
		p.app.SetStatus(fmt.Sprintf("AI added %d cards", res.Cards))
	case errors.Is(err, ai.ErrBusy):
		p.app.ShowError(err)
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
