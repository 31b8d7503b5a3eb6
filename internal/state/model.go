package state

import "errors"

// ToolID names a drawing tool; see package tools for the registry.
type ToolID string

const (
	ToolPen    ToolID = "pen"
	ToolEraser ToolID = "eraser"
	ToolSelect ToolID = "select"
)

const (
	MinZoom = 0.25
	MaxZoom = 3.0

	DefaultCardWidth  = 280.0
	DefaultCardHeight = 200.0
	DefaultNoteWidth  = 200.0
	DefaultNoteHeight = 160.0
	DefaultNoteColor  = "#fff59d"
)

var (
	ErrDuplicateID = errors.New("entity id already in use")
	ErrEmptyID     = errors.New("entity id is empty")
)

// Point is a canvas-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawingPath is a committed freehand stroke. It is never mutated after
// it has been added to a Board.
type DrawingPath struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"ownerId,omitempty"`
	Points      []Point `json:"points"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	Tool        ToolID  `json:"tool"`
}

func (p DrawingPath) clone() DrawingPath {
	p.Points = append([]Point(nil), p.Points...)
	return p
}

// ViewState is the camera transform: translate(offset) then scale(zoom).
type ViewState struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Zoom    float64 `json:"zoom"`
}

// DefaultView is the identity camera.
func DefaultView() ViewState {
	return ViewState{Zoom: 1}
}

// ClampZoom bounds z to [MinZoom, MaxZoom]. Non-positive values map to 1.
func ClampZoom(z float64) float64 {
	switch {
	case z <= 0:
		return 1
	case z < MinZoom:
		return MinZoom
	case z > MaxZoom:
		return MaxZoom
	}
	return z
}

// Entity is the positioned, selectable part shared by cards and notes.
type Entity struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Selected bool    `json:"selected"`
}

// Bounds returns the entity rectangle in canvas space.
func (e Entity) Bounds() Rect {
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// Card is an AI-generated content block.
type Card struct {
	Entity
	Title   string `json:"title"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

// StickyNote is a free-form editable note.
type StickyNote struct {
	Entity
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Snapshot is a deep copy of everything a Board holds.
type Snapshot struct {
	Paths       []DrawingPath `json:"paths"`
	Cards       []Card        `json:"cards"`
	StickyNotes []StickyNote  `json:"stickyNotes"`
	View        ViewState     `json:"view"`
}

// IsEmpty reports whether there is nothing worth persisting.
func (s Snapshot) IsEmpty() bool {
	return len(s.Paths) == 0 && len(s.Cards) == 0 && len(s.StickyNotes) == 0
}
