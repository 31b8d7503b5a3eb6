package ai

import (
	"fmt"

	"github.com/google/uuid"

	"StudyBoard/internal/state"
)

// NamespacePrefix starts the id of every AI-streamed card.
const NamespacePrefix = "ai-"

// NewNamespace returns a fresh id prefix for one request. The random part
// keeps concurrent requests from sharing a prefix.
func NewNamespace() string {
	return NamespacePrefix + uuid.NewString() + "-"
}

// DeriveID maps a source entity id into a request namespace, so repeated
// snapshots of the same entity land on the same card.
func DeriveID(namespace, sourceID string) string {
	return namespace + sourceID
}

// Layout places streamed cards side by side.
type Layout struct {
	Width   float64
	Height  float64
	Spacing float64
}

// DefaultLayout matches the default card size.
var DefaultLayout = Layout{Width: state.DefaultCardWidth, Height: state.DefaultCardHeight, Spacing: 40}

// Positions returns the top-left corner of n cards laid out horizontally
// and centred on center.
func (l Layout) Positions(n int, center state.Point) []state.Point {
	if n <= 0 {
		return nil
	}
	total := float64(n)*l.Width + float64(n-1)*l.Spacing
	x := center.X - total/2
	y := center.Y - l.Height/2
	out := make([]state.Point, n)
	for i := range out {
		out[i] = state.Point{X: x + float64(i)*(l.Width+l.Spacing), Y: y}
	}
	return out
}

// Merger projects snapshots onto a board.
type Merger struct {
	board  *state.Board
	layout Layout
	center func() state.Point
}

// NewMerger lays snapshots out around whatever center returns at merge
// time, normally the viewport centre in canvas space.
func NewMerger(board *state.Board, layout Layout, center func() state.Point) *Merger {
	if center == nil {
		center = func() state.Point { return state.Point{} }
	}
	return &Merger{board: board, layout: layout, center: center}
}

// MergeCards makes the namespace hold exactly cards.
func (m *Merger) MergeCards(namespace, kind string, cards []GeneratedCard) error {
	pos := m.layout.Positions(len(cards), m.center())
	// Real ids win; cards without a usable id get the first free card-N.
	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		if c.ID != "" {
			seen[c.ID] = true
		}
	}
	used := make(map[string]bool, len(cards))
	fallback := 0
	next := make([]state.Card, 0, len(cards))
	for i, c := range cards {
		src := c.ID
		if src == "" || used[src] {
			for {
				src = fmt.Sprintf("card-%d", fallback)
				fallback++
				if !seen[src] && !used[src] {
					break
				}
			}
		}
		used[src] = true
		next = append(next, state.Card{
			Entity: state.Entity{
				ID:     DeriveID(namespace, src),
				X:      pos[i].X,
				Y:      pos[i].Y,
				Width:  m.layout.Width,
				Height: m.layout.Height,
			},
			Title:   c.Title,
			Content: c.Content,
			Kind:    kind,
		})
	}
	return m.board.ReplaceNamespace(namespace, next)
}

// MergeText shows a free-text result as a single card in the namespace.
func (m *Merger) MergeText(namespace, kind, title, text string) error {
	return m.MergeCards(namespace, kind, []GeneratedCard{{ID: "result", Title: title, Content: text}})
}
