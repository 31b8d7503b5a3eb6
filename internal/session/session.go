// Package session persists boards: stores keyed by (user, session), a
// debounced autosaver and the Manager that ties them to a live board.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StudyBoard/internal/state"
)

var ErrNotFound = errors.New("session not found")

// ViewOffset is the persisted pan offset.
type ViewOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session is a saved board.
type Session struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Title       string              `json:"title"`
	Paths       []state.DrawingPath `json:"paths"`
	Cards       []state.Card        `json:"cards"`
	StickyNotes []state.StickyNote  `json:"stickyNotes"`
	ViewOffset  ViewOffset          `json:"viewOffset"`
	Zoom        float64             `json:"zoom"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Summary is the listing entry for a session.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Paths       int       `json:"paths"`
	Cards       int       `json:"cards"`
	StickyNotes int       `json:"stickyNotes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// blob is the persisted board content.
type blob struct {
	Paths       []state.DrawingPath `json:"paths"`
	Cards       []state.Card        `json:"cards"`
	StickyNotes []state.StickyNote  `json:"stickyNotes"`
	ViewOffset  ViewOffset          `json:"viewOffset"`
	Zoom        float64             `json:"zoom"`
}

func (s *Session) blob() blob {
	return blob{Paths: s.Paths, Cards: s.Cards, StickyNotes: s.StickyNotes, ViewOffset: s.ViewOffset, Zoom: s.Zoom}
}

func (s *Session) setBlob(b blob) {
	s.Paths, s.Cards, s.StickyNotes = b.Paths, b.Cards, b.StickyNotes
	s.ViewOffset, s.Zoom = b.ViewOffset, b.Zoom
}

// Summary returns the listing entry for s.
func (s *Session) Summary() Summary {
	return Summary{
		ID:          s.ID,
		Title:       s.Title,
		Paths:       len(s.Paths),
		Cards:       len(s.Cards),
		StickyNotes: len(s.StickyNotes),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// FromSnapshot builds the board content of a session.
func FromSnapshot(snap state.Snapshot) Session {
	return Session{
		Title:       titleFor(snap),
		Paths:       snap.Paths,
		Cards:       snap.Cards,
		StickyNotes: snap.StickyNotes,
		ViewOffset:  ViewOffset{X: snap.View.OffsetX, Y: snap.View.OffsetY},
		Zoom:        snap.View.Zoom,
	}
}

// Snapshot converts a session back into board state.
func (s *Session) Snapshot() state.Snapshot {
	return state.Snapshot{
		Paths:       s.Paths,
		Cards:       s.Cards,
		StickyNotes: s.StickyNotes,
		View:        state.ViewState{OffsetX: s.ViewOffset.X, OffsetY: s.ViewOffset.Y, Zoom: state.ClampZoom(s.Zoom)},
	}
}

const maxTitle = 48

func titleFor(snap state.Snapshot) string {
	for _, c := range snap.Cards {
		if t := strings.TrimSpace(c.Title); t != "" {
			return truncate(t)
		}
	}
	for _, n := range snap.StickyNotes {
		if t := strings.TrimSpace(n.Text); t != "" {
			return truncate(strings.SplitN(t, "\n", 2)[0])
		}
	}
	return fmt.Sprintf("Sketch (%d strokes)", len(snap.Paths))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTitle {
		return s
	}
	return string(r[:maxTitle-1]) + "…"
}

// Store persists sessions keyed by (userID, session id).
type Store interface {
	List(ctx context.Context, userID string) ([]Summary, error)
	Get(ctx context.Context, userID, id string) (*Session, error)
	// Put creates or replaces a session, filling CreatedAt on first write
	// and UpdatedAt on every write.
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID, id string) error
}
