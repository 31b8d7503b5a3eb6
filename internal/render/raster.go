// Package render rasterises committed and live strokes into an ink layer
// and schedules redraws.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
)

// Raster holds the ink layer: a transparent RGBA image in screen space
// onto which strokes are composited with their tool's mode.
type Raster struct {
	mu    sync.Mutex
	tools *tools.Registry
	ink   *image.RGBA
}

// NewRaster returns an ink layer of the given pixel size.
func NewRaster(reg *tools.Registry, width, height int) *Raster {
	return &Raster{
		tools: reg,
		ink:   image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1))),
	}
}

// Resize changes the layer size and clears it. It reports whether the size
// changed; callers redraw afterwards.
func (r *Raster) Resize(width, height int) bool {
	width, height = max(width, 1), max(height, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.ink.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return false
	}
	r.ink = image.NewRGBA(image.Rect(0, 0, width, height))
	return true
}

// Size returns the pixel size of the layer.
func (r *Raster) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.ink.Bounds()
	return b.Dx(), b.Dy()
}

// Redraw clears the layer and replays every path under view.
func (r *Raster) Redraw(paths []state.DrawingPath, view state.ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draw.Draw(r.ink, r.ink.Bounds(), image.Transparent, image.Point{}, draw.Src)
	for _, p := range paths {
		segs := Segments(p.Points)
		if len(segs) == 0 {
			continue
		}
		r.stroke(segs, r.tools.Resolve(p.Tool, p.Color, p.StrokeWidth), view)
	}
}

// DrawLive composites a single new segment of an in-progress path without
// touching anything already on the layer.
func (r *Raster) DrawLive(p state.DrawingPath, seg Segment, view state.ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stroke([]Segment{seg}, r.tools.Resolve(p.Tool, p.Color, p.StrokeWidth), view)
}

// Frame returns a copy of the layer safe to hand to another goroutine.
func (r *Raster) Frame() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := image.NewRGBA(r.ink.Bounds())
	copy(out.Pix, r.ink.Pix)
	return out
}

// At returns the colour of one pixel of the layer.
func (r *Raster) At(x, y int) color.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ink.At(x, y)
}

func (r *Raster) stroke(segs []Segment, style tools.Style, view state.ViewState) {
	zoom := state.ClampZoom(view.Zoom)
	width := max(style.Width*zoom, 0.5)
	area := segmentBounds(segs, view, width).Intersect(r.ink.Bounds())
	if area.Empty() {
		return
	}

	switch style.Composite {
	case tools.DestinationOut:
		dc := gg.NewContext(area.Dx(), area.Dy())
		trace(dc, segs, view, width, area.Min)
		dc.SetColor(color.White)
		dc.Stroke()
		draw.DrawMask(r.ink, area, image.Transparent, image.Point{}, dc.AsMask(), image.Point{}, draw.Src)
	default:
		dc := gg.NewContextForRGBA(r.ink)
		trace(dc, segs, view, width, image.Point{})
		dc.SetColor(style.Color)
		dc.Stroke()
	}
}

func trace(dc *gg.Context, segs []Segment, view state.ViewState, width float64, origin image.Point) {
	zoom := state.ClampZoom(view.Zoom)
	dc.SetLineWidth(width)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.Translate(view.OffsetX-float64(origin.X), view.OffsetY-float64(origin.Y))
	dc.Scale(zoom, zoom)
	cur := segs[0].From
	dc.MoveTo(cur.X, cur.Y)
	for _, s := range segs {
		if s.From != cur {
			dc.MoveTo(s.From.X, s.From.Y)
		}
		dc.QuadraticTo(s.Ctrl.X, s.Ctrl.Y, s.To.X, s.To.Y)
		cur = s.To
	}
}

// segmentBounds returns the screen-space pixel rectangle touched by segs.
func segmentBounds(segs []Segment, view state.ViewState, width float64) image.Rectangle {
	t := state.Transform{View: view}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segs {
		for _, p := range []state.Point{s.From, s.Ctrl, s.To} {
			x, y := t.CanvasToScreen(p)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	pad := width/2 + 1
	return image.Rect(
		int(math.Floor(minX-pad)), int(math.Floor(minY-pad)),
		int(math.Ceil(maxX+pad)), int(math.Ceil(maxY+pad)),
	)
}
