package net

import (
	"log"
	"sync"

	"StudyBoard/internal/state"
)

// Sender delivers a message to the other side of a share session.
type Sender interface {
	Send(Message) error
}

// Link mirrors a board over a share session: strokes committed by the
// local owner go out, remote messages are applied to the board.
type Link struct {
	board *state.Board
	owner string
	send  Sender

	mu     sync.Mutex
	remote map[string]bool // ids of paths that arrived from peers
	cancel func()
}

// Bind starts forwarding strokes committed on board by owner to send.
func Bind(board *state.Board, owner string, send Sender) *Link {
	l := &Link{board: board, owner: owner, send: send, remote: make(map[string]bool)}
	l.cancel = board.Subscribe(l.onChange)
	return l
}

func (l *Link) Owner() string { return l.owner }

func (l *Link) onChange(c state.Change) {
	if c.Kind != state.ChangePath || c.Path == nil || c.Path.OwnerID != l.owner {
		return
	}
	l.mu.Lock()
	echoed := l.remote[c.Path.ID]
	l.mu.Unlock()
	if echoed {
		return
	}
	p := *c.Path
	if err := l.send.Send(Message{Type: TypeDraw, Path: &p}); err != nil {
		log.Printf("[SHARE] Failed to send drawing: %v", err)
	}
}

// Apply performs a message received from a peer.
func (l *Link) Apply(msg Message) {
	switch msg.Type {
	case TypeDraw:
		l.mu.Lock()
		l.remote[msg.Path.ID] = true
		l.mu.Unlock()
		l.board.AddPath(*msg.Path)
	case TypeUndo:
		l.board.RemovePath(msg.Path.ID)
	case TypeClear:
		log.Printf("[SHARE] Clearing strokes of %s", msg.OwnerID)
		l.board.ClearPaths(msg.OwnerID)
	}
}

// Undo removes the local owner's most recent stroke everywhere.
func (l *Link) Undo() bool {
	p, ok := l.board.UndoPath(l.owner)
	if !ok {
		return false
	}
	if err := l.send.Send(Message{Type: TypeUndo, Path: &state.DrawingPath{ID: p.ID}}); err != nil {
		log.Printf("[SHARE] Failed to send undo: %v", err)
	}
	return true
}

// Clear removes the local owner's strokes everywhere.
func (l *Link) Clear() int {
	n := l.board.ClearPaths(l.owner)
	if err := l.send.Send(Message{Type: TypeClear, OwnerID: l.owner}); err != nil {
		log.Printf("[SHARE] Failed to send clear: %v", err)
	}
	return n
}

// Close stops forwarding.
func (l *Link) Close() {
	l.cancel()
}
