// Package tools holds the drawing tool registry. A tool only decides how a
// stroke is composited; adding one means registering another Tool.
package tools

import (
	"image/color"
	"sync"

	"StudyBoard/internal/state"
)

// Composite is the compositing mode used when a stroke is rasterised.
type Composite int

const (
	// SourceOver paints ink on top of what is already there.
	SourceOver Composite = iota
	// DestinationOut removes existing ink under the stroke.
	DestinationOut
)

func (c Composite) String() string {
	if c == DestinationOut {
		return "destination-out"
	}
	return "source-over"
}

// EraserWidthFactor widens the eraser relative to the chosen pen width.
const EraserWidthFactor = 4

// Tool resolves the rendering parameters for a stroke.
type Tool interface {
	ID() state.ToolID
	CompositeOperation() Composite
	StrokeStyle(base color.Color) color.Color
	StrokeWidth(base float64) float64
	Alpha() float64
}

type pen struct{}

func (pen) ID() state.ToolID                         { return state.ToolPen }
func (pen) CompositeOperation() Composite            { return SourceOver }
func (pen) StrokeStyle(base color.Color) color.Color { return base }
func (pen) StrokeWidth(base float64) float64         { return base }
func (pen) Alpha() float64                           { return 1 }

type eraser struct{}

func (eraser) ID() state.ToolID              { return state.ToolEraser }
func (eraser) CompositeOperation() Composite { return DestinationOut }

// StrokeStyle is opaque: only the coverage of an eraser stroke matters.
func (eraser) StrokeStyle(color.Color) color.Color { return color.Black }

func (eraser) StrokeWidth(base float64) float64 { return base * EraserWidthFactor }
func (eraser) Alpha() float64                   { return 1 }

// Registry maps tool ids to implementations.
type Registry struct {
	mu    sync.RWMutex
	tools map[state.ToolID]Tool
}

// NewRegistry returns a registry holding the pen and the eraser.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[state.ToolID]Tool)}
	r.Register(pen{})
	r.Register(eraser{})
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.ID()] = t
}

// ByID returns the tool registered under id.
func (r *Registry) ByID(id state.ToolID) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// IsDrawing reports whether id names a registered stroke tool.
func (r *Registry) IsDrawing(id state.ToolID) bool {
	_, ok := r.ByID(id)
	return ok
}

// Style is the resolved look of one stroke.
type Style struct {
	Composite Composite
	Color     color.NRGBA
	Width     float64
}

// Resolve computes the style for a stroke drawn with tool id, base colour
// string and base width. Unknown tools fall back to the pen.
func (r *Registry) Resolve(id state.ToolID, baseColor string, baseWidth float64) Style {
	t, ok := r.ByID(id)
	if !ok {
		t = pen{}
	}
	c := color.NRGBAModel.Convert(t.StrokeStyle(ParseColor(baseColor))).(color.NRGBA)
	c.A = uint8(float64(c.A) * clamp01(t.Alpha()))
	return Style{
		Composite: t.CompositeOperation(),
		Color:     c,
		Width:     t.StrokeWidth(baseWidth),
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
