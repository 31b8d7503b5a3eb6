// Package export writes a board to a printable PDF page.
package export

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"

	"github.com/jung-kurt/gofpdf"

	"StudyBoard/internal/render"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

const (
	pageW  = 297.0 // A4 landscape, mm
	pageH  = 210.0
	margin = 10.0
	pad    = 3.0 // inner padding of entity boxes, mm
	ptMM   = 0.3528
)

// Options tune the exported page.
type Options struct {
	Title string
	Tools *tools.Registry
	// Font is a TrueType file used when the board has text outside
	// Latin-1. Empty tries FontCandidates.
	Font string
}

// FontCandidates are common system fonts with wide script coverage.
var FontCandidates = []string{
	"/usr/share/fonts/truetype/noto/NotoSansDevanagari-Regular.ttf",
	"/usr/share/fonts/noto/NotoSansDevanagari-Regular.ttf",
	"/usr/share/fonts/truetype/freefont/FreeSans.ttf",
	"/usr/share/fonts/gnu-free/FreeSans.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	`C:\Windows\Fonts\Nirmala.ttf`,
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const unicodeFamily = "board-unicode"

// textFont picks the font family for box text and the translator that
// prepares strings for it.
type textFont struct {
	family string
	tr     func(string) string
}

func needsUnicode(snap state.Snapshot) bool {
	wide := func(s string) bool {
		for _, r := range s {
			if r > 0xFF {
				return true
			}
		}
		return false
	}
	for _, c := range snap.Cards {
		if wide(c.Title) || wide(c.Content) {
			return true
		}
	}
	for _, n := range snap.StickyNotes {
		if wide(n.Text) {
			return true
		}
	}
	return false
}

func fontFor(pdf *gofpdf.Fpdf, snap state.Snapshot, path string) textFont {
	core := textFont{family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if !needsUnicode(snap) {
		return core
	}
	candidates := FontCandidates
	if path != "" {
		candidates = []string{path}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", data)
		pdf.AddUTF8FontFromBytes(unicodeFamily, "B", data)
		return textFont{family: unicodeFamily, tr: func(s string) string { return s }}
	}
	log.Printf("[EXPORT] No Unicode font found; non-Latin text may not render")
	return core
}

// fit maps canvas coordinates onto the printable area, preserving aspect
// ratio and never enlarging past 1px = 1pt.
type fit struct {
	scale  float64
	dx, dy float64
}

func newFit(bounds state.Rect) fit {
	availW, availH := pageW-2*margin, pageH-2*margin
	scale := ptMM
	if bounds.Width > 0 && bounds.Height > 0 {
		scale = math.Min(scale, math.Min(availW/bounds.Width, availH/bounds.Height))
	}
	// Centre the content.
	dx := margin + (availW-bounds.Width*scale)/2 - bounds.X*scale
	dy := margin + (availH-bounds.Height*scale)/2 - bounds.Y*scale
	return fit{scale: scale, dx: dx, dy: dy}
}

func (f fit) pt(p state.Point) (float64, float64) {
	return p.X*f.scale + f.dx, p.Y*f.scale + f.dy
}

// PDF writes snap to path as a single A4 landscape page.
func PDF(path string, snap state.Snapshot, opts Options) error {
	pdf, err := build(snap, opts)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("[EXPORT] Wrote %s", path)
	return nil
}

// Write renders snap as a PDF document to w.
func Write(w io.Writer, snap state.Snapshot, opts Options) error {
	pdf, err := build(snap, opts)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func build(snap state.Snapshot, opts Options) (*gofpdf.Fpdf, error) {
	if opts.Tools == nil {
		opts.Tools = tools.NewRegistry()
	}
	if opts.Title == "" {
		opts.Title = "StudyBoard"
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("StudyBoard", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	bounds, ok := snap.Bounds()
	if !ok {
		return pdf, pdf.Error()
	}
	f := newFit(bounds)
	font := fontFor(pdf, snap, opts.Font)

	drawPaths(pdf, f, opts.Tools, snap.Paths)
	for _, c := range snap.Cards {
		drawBox(pdf, f, font, c.Entity, color.White, c.Title, c.Content)
	}
	for _, n := range snap.StickyNotes {
		fill := tools.ParseColor(n.Color)
		if n.Color == "" {
			fill = tools.ParseColor(state.DefaultNoteColor)
		}
		drawBox(pdf, f, font, n.Entity, fill, "", n.Text)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

func drawPaths(pdf *gofpdf.Fpdf, f fit, reg *tools.Registry, paths []state.DrawingPath) {
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	for _, p := range paths {
		style := reg.Resolve(p.Tool, p.Color, p.StrokeWidth)
		if style.Composite == tools.DestinationOut {
			// Paper has no transparency; erase by painting the page colour.
			pdf.SetDrawColor(255, 255, 255)
		} else {
			pdf.SetDrawColor(int(style.Color.R), int(style.Color.G), int(style.Color.B))
		}
		pdf.SetAlpha(alpha(style.Color.A), "Normal")
		pdf.SetLineWidth(math.Max(style.Width*f.scale, 0.1))
		for _, s := range render.Segments(p.Points) {
			x0, y0 := f.pt(s.From)
			cx, cy := f.pt(s.Ctrl)
			x1, y1 := f.pt(s.To)
			pdf.Curve(x0, y0, cx, cy, x1, y1, "D")
		}
	}
	pdf.SetAlpha(1, "Normal")
}

func alpha(a uint8) float64 {
	if a == 0 {
		return 1
	}
	return float64(a) / 255
}

func drawBox(pdf *gofpdf.Fpdf, f fit, font textFont, e state.Entity, fill color.Color, title, body string) {
	x, y := f.pt(state.Point{X: e.X, Y: e.Y})
	w, h := e.Width*f.scale, e.Height*f.scale

	r, g, b, _ := fill.RGBA()
	pdf.SetFillColor(int(r>>8), int(g>>8), int(b>>8))
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.2)
	pdf.Rect(x, y, w, h, "FD")

	// Text scales with the box but stays legible.
	size := math.Max(math.Min(12*f.scale/ptMM, 12), 4)
	lineH := size * 0.45
	pdf.ClipRect(x, y, w, h, false)
	pdf.SetXY(x+pad, y+pad)
	inner := math.Max(w-2*pad, 1)
	if title != "" {
		pdf.SetFont(font.family, "B", size)
		pdf.SetX(x + pad)
		pdf.MultiCell(inner, lineH, font.tr(title), "", "L", false)
	}
	if body != "" {
		pdf.SetFont(font.family, "", size*0.85)
		pdf.SetX(x + pad)
		pdf.MultiCell(inner, lineH*0.9, font.tr(body), "", "L", false)
	}
	pdf.ClipEnd()
}
