package state

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ChangeKind classifies a board mutation for observers.
type ChangeKind int

const (
	ChangePath ChangeKind = iota
	ChangeEntity
	ChangeSelection
	ChangeView
	// ChangeRestore is emitted when the whole board is replaced by Restore
	// or Reset.
	ChangeRestore
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePath:
		return "path"
	case ChangeEntity:
		return "entity"
	case ChangeSelection:
		return "selection"
	case ChangeView:
		return "view"
	case ChangeRestore:
		return "restore"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change describes one applied mutation.
type Change struct {
	Kind     ChangeKind
	Revision int64
	// Path is set for ChangePath when a path was added.
	Path *DrawingPath
}

// Board owns the paths, cards, sticky notes, selection and view of one
// whiteboard. All methods are safe for concurrent use; listeners run after
// the lock has been released.
type Board struct {
	mu        sync.RWMutex
	paths     []DrawingPath
	cards     []Card
	notes     []StickyNote
	selection Selection
	view      ViewState
	clock     Clock

	lmu       sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// NewBoard returns an empty board with the identity view.
func NewBoard() *Board {
	return &Board{
		view:      DefaultView(),
		listeners: make(map[int]func(Change)),
	}
}

// Subscribe registers fn for every change and returns a function that
// removes it.
func (b *Board) Subscribe(fn func(Change)) (cancel func()) {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	return func() {
		b.lmu.Lock()
		defer b.lmu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *Board) changed(kind ChangeKind) Change {
	return Change{Kind: kind, Revision: b.clock.Tick()}
}

func (b *Board) notify(c Change) {
	b.lmu.Lock()
	fns := make([]func(Change), 0, len(b.listeners))
	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	b.lmu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Revision returns the number of mutations applied so far.
func (b *Board) Revision() int64 { return b.clock.Now() }

// View returns the current camera.
func (b *Board) View() ViewState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

// SetView replaces offset and zoom together. Zoom is clamped.
func (b *Board) SetView(v ViewState) {
	v.Zoom = ClampZoom(v.Zoom)
	b.mu.Lock()
	if v == b.view {
		b.mu.Unlock()
		return
	}
	b.view = v
	c := b.changed(ChangeView)
	b.mu.Unlock()
	b.notify(c)
}

// Pan shifts the view offset by (dx, dy) screen pixels.
func (b *Board) Pan(dx, dy float64) {
	b.mu.Lock()
	b.view.OffsetX += dx
	b.view.OffsetY += dy
	c := b.changed(ChangeView)
	b.mu.Unlock()
	b.notify(c)
}

// Paths returns a copy of the committed paths in drawing order.
func (b *Board) Paths() []DrawingPath {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]DrawingPath, len(b.paths))
	for i, p := range b.paths {
		out[i] = p.clone()
	}
	return out
}

// AddPath commits a stroke. Paths with fewer than two points are stray
// clicks and are dropped, as are paths whose id is already on the board.
func (b *Board) AddPath(p DrawingPath) bool {
	if len(p.Points) < 2 {
		return false
	}
	p = p.clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	b.mu.Lock()
	if slices.ContainsFunc(b.paths, func(q DrawingPath) bool { return q.ID == p.ID }) {
		b.mu.Unlock()
		return false
	}
	b.paths = append(b.paths, p)
	c := b.changed(ChangePath)
	c.Path = &p
	b.mu.Unlock()
	b.notify(c)
	return true
}

// UndoPath removes the most recent path. When ownerID is not empty only
// that owner's paths are considered.
func (b *Board) UndoPath(ownerID string) (DrawingPath, bool) {
	b.mu.Lock()
	for i := len(b.paths) - 1; i >= 0; i-- {
		if ownerID != "" && b.paths[i].OwnerID != ownerID {
			continue
		}
		p := b.paths[i]
		b.paths = slices.Delete(b.paths, i, i+1)
		c := b.changed(ChangePath)
		b.mu.Unlock()
		b.notify(c)
		return p, true
	}
	b.mu.Unlock()
	return DrawingPath{}, false
}

// RemovePath removes the path with the given id.
func (b *Board) RemovePath(id string) bool {
	b.mu.Lock()
	i := slices.IndexFunc(b.paths, func(p DrawingPath) bool { return p.ID == id })
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.paths = slices.Delete(b.paths, i, i+1)
	c := b.changed(ChangePath)
	b.mu.Unlock()
	b.notify(c)
	return true
}

// ClearPaths removes every path owned by ownerID, or all paths when ownerID
// is "" or "all". It returns how many were removed.
func (b *Board) ClearPaths(ownerID string) int {
	b.mu.Lock()
	before := len(b.paths)
	if ownerID == "" || ownerID == "all" {
		b.paths = nil
	} else {
		b.paths = slices.DeleteFunc(b.paths, func(p DrawingPath) bool { return p.OwnerID == ownerID })
	}
	removed := before - len(b.paths)
	if removed == 0 {
		b.mu.Unlock()
		return 0
	}
	c := b.changed(ChangePath)
	b.mu.Unlock()
	b.notify(c)
	return removed
}

func (b *Board) cardIndex(id string) int {
	return slices.IndexFunc(b.cards, func(c Card) bool { return c.ID == id })
}

func (b *Board) noteIndex(id string) int {
	return slices.IndexFunc(b.notes, func(n StickyNote) bool { return n.ID == id })
}

func (b *Board) hasID(id string) bool {
	return b.cardIndex(id) >= 0 || b.noteIndex(id) >= 0
}

func normalizeSize(e *Entity, w, h float64) {
	if e.Width <= 0 {
		e.Width = w
	}
	if e.Height <= 0 {
		e.Height = h
	}
}

// Cards returns a copy of the cards with Selected reflecting the selection.
func (b *Board) Cards() []Card {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cardsLocked()
}

func (b *Board) cardsLocked() []Card {
	if len(b.cards) == 0 {
		return nil
	}
	out := slices.Clone(b.cards)
	for i := range out {
		out[i].Selected = b.selection.Has(out[i].ID)
	}
	return out
}

// StickyNotes returns a copy of the notes with Selected reflecting the
// selection.
func (b *Board) StickyNotes() []StickyNote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.notesLocked()
}

func (b *Board) notesLocked() []StickyNote {
	if len(b.notes) == 0 {
		return nil
	}
	out := slices.Clone(b.notes)
	for i := range out {
		out[i].Selected = b.selection.Has(out[i].ID)
	}
	return out
}

// AddCard inserts a card. Ids must be unique across cards and notes.
func (b *Board) AddCard(c Card) error {
	if c.ID == "" {
		return ErrEmptyID
	}
	normalizeSize(&c.Entity, DefaultCardWidth, DefaultCardHeight)
	c.Selected = false
	b.mu.Lock()
	if b.hasID(c.ID) {
		b.mu.Unlock()
		return fmt.Errorf("add card %q: %w", c.ID, ErrDuplicateID)
	}
	b.cards = append(b.cards, c)
	ch := b.changed(ChangeEntity)
	b.mu.Unlock()
	b.notify(ch)
	return nil
}

// AddStickyNote inserts a note, assigning an id when it has none.
func (b *Board) AddStickyNote(n StickyNote) (StickyNote, error) {
	if n.ID == "" {
		n.ID = "note-" + uuid.NewString()
	}
	if n.Color == "" {
		n.Color = DefaultNoteColor
	}
	normalizeSize(&n.Entity, DefaultNoteWidth, DefaultNoteHeight)
	n.Selected = false
	b.mu.Lock()
	if b.hasID(n.ID) {
		b.mu.Unlock()
		return StickyNote{}, fmt.Errorf("add sticky note %q: %w", n.ID, ErrDuplicateID)
	}
	b.notes = append(b.notes, n)
	ch := b.changed(ChangeEntity)
	b.mu.Unlock()
	b.notify(ch)
	return n, nil
}

// SetNoteText replaces a note's text. Unknown ids are ignored.
func (b *Board) SetNoteText(id, text string) bool {
	b.mu.Lock()
	i := b.noteIndex(id)
	if i < 0 || b.notes[i].Text == text {
		b.mu.Unlock()
		return false
	}
	b.notes[i].Text = text
	ch := b.changed(ChangeEntity)
	b.mu.Unlock()
	b.notify(ch)
	return true
}

// Entity returns the geometry of the card or note with the given id.
func (b *Board) Entity(id string) (Entity, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.cardIndex(id); i >= 0 {
		e := b.cards[i].Entity
		e.Selected = b.selection.Has(id)
		return e, true
	}
	if i := b.noteIndex(id); i >= 0 {
		e := b.notes[i].Entity
		e.Selected = b.selection.Has(id)
		return e, true
	}
	return Entity{}, false
}

// EntityAt returns the topmost entity containing p. Notes are stacked
// above cards, later entities above earlier ones.
func (b *Board) EntityAt(p Point) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for i := len(b.notes) - 1; i >= 0; i-- {
		if b.notes[i].Bounds().Contains(p) {
			return b.notes[i].ID, true
		}
	}
	for i := len(b.cards) - 1; i >= 0; i-- {
		if b.cards[i].Bounds().Contains(p) {
			return b.cards[i].ID, true
		}
	}
	return "", false
}

// Select applies a click on entity id; see Selection.Toggle. Unknown ids
// are ignored.
func (b *Board) Select(id string, multi bool) {
	b.mu.Lock()
	if !b.hasID(id) {
		b.mu.Unlock()
		return
	}
	b.selection.Toggle(id, multi)
	c := b.changed(ChangeSelection)
	b.mu.Unlock()
	b.notify(c)
}

// ClearSelection empties the selection.
func (b *Board) ClearSelection() {
	b.mu.Lock()
	if b.selection.Len() == 0 {
		b.mu.Unlock()
		return
	}
	b.selection.Clear()
	c := b.changed(ChangeSelection)
	b.mu.Unlock()
	b.notify(c)
}

// SelectedIDs returns the selection in click order.
func (b *Board) SelectedIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selection.IDs()
}

// SelectedContents returns the text of each selected entity in selection
// order: a card's title and content, or a note's text.
func (b *Board) SelectedContents() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []string
	for _, id := range b.selection.IDs() {
		if i := b.cardIndex(id); i >= 0 {
			c := b.cards[i]
			out = append(out, strings.TrimSpace(c.Title+"\n"+c.Content))
			continue
		}
		if i := b.noteIndex(id); i >= 0 {
			out = append(out, b.notes[i].Text)
		}
	}
	return out
}

// SelectedNotes returns copies of the selected sticky notes.
func (b *Board) SelectedNotes() []StickyNote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []StickyNote
	for _, id := range b.selection.IDs() {
		if i := b.noteIndex(id); i >= 0 {
			n := b.notes[i]
			n.Selected = true
			out = append(out, n)
		}
	}
	return out
}

// Move places entity id at (x, y). Unknown ids are ignored.
func (b *Board) Move(id string, x, y float64) bool {
	return b.updateEntity(id, func(e *Entity) bool {
		if e.X == x && e.Y == y {
			return false
		}
		e.X, e.Y = x, y
		return true
	})
}

// Resize sets entity id's size. Non-positive sizes and unknown ids are
// ignored.
func (b *Board) Resize(id string, w, h float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return b.updateEntity(id, func(e *Entity) bool {
		e.Width, e.Height = w, h
		return true
	})
}

func (b *Board) updateEntity(id string, fn func(*Entity) bool) bool {
	b.mu.Lock()
	var e *Entity
	if i := b.cardIndex(id); i >= 0 {
		e = &b.cards[i].Entity
	} else if i := b.noteIndex(id); i >= 0 {
		e = &b.notes[i].Entity
	}
	if e == nil || !fn(e) {
		b.mu.Unlock()
		return false
	}
	c := b.changed(ChangeEntity)
	b.mu.Unlock()
	b.notify(c)
	return true
}

// Delete removes entity id and drops it from the selection. Unknown ids
// are ignored.
func (b *Board) Delete(id string) bool {
	b.mu.Lock()
	if !b.deleteLocked(id) {
		b.mu.Unlock()
		return false
	}
	c := b.changed(ChangeEntity)
	b.mu.Unlock()
	b.notify(c)
	return true
}

func (b *Board) deleteLocked(id string) bool {
	if i := b.cardIndex(id); i >= 0 {
		b.cards = slices.Delete(b.cards, i, i+1)
	} else if i := b.noteIndex(id); i >= 0 {
		b.notes = slices.Delete(b.notes, i, i+1)
	} else {
		return false
	}
	b.selection.Remove(id)
	return true
}

// DeleteSelected removes every selected entity.
func (b *Board) DeleteSelected() int {
	b.mu.Lock()
	n := 0
	for _, id := range b.selection.IDs() {
		if b.deleteLocked(id) {
			n++
		}
	}
	if n == 0 {
		b.mu.Unlock()
		return 0
	}
	c := b.changed(ChangeEntity)
	b.mu.Unlock()
	b.notify(c)
	return n
}

// CardsInNamespace returns the cards whose id starts with prefix.
func (b *Board) CardsInNamespace(prefix string) []Card {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Card
	for _, c := range b.cardsLocked() {
		if strings.HasPrefix(c.ID, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// ReplaceNamespace makes the cards under prefix exactly match next in one
// step: members absent from next are removed, members present are updated
// in place, new ids are appended. Every card in next must carry the prefix.
func (b *Board) ReplaceNamespace(prefix string, next []Card) error {
	if prefix == "" {
		return fmt.Errorf("replace namespace: %w", ErrEmptyID)
	}
	keep := make(map[string]Card, len(next))
	for _, c := range next {
		if !strings.HasPrefix(c.ID, prefix) {
			return fmt.Errorf("replace namespace %q: card %q outside namespace", prefix, c.ID)
		}
		normalizeSize(&c.Entity, DefaultCardWidth, DefaultCardHeight)
		keep[c.ID] = c
	}

	b.mu.Lock()
	for _, c := range next {
		if b.noteIndex(c.ID) >= 0 {
			b.mu.Unlock()
			return fmt.Errorf("replace namespace %q: card %q: %w", prefix, c.ID, ErrDuplicateID)
		}
	}
	removed := 0
	b.cards = slices.DeleteFunc(b.cards, func(c Card) bool {
		if !strings.HasPrefix(c.ID, prefix) {
			return false
		}
		if _, ok := keep[c.ID]; ok {
			return false
		}
		b.selection.Remove(c.ID)
		removed++
		return true
	})
	for i := range b.cards {
		if n, ok := keep[b.cards[i].ID]; ok {
			n.Selected = false
			b.cards[i] = n
			delete(keep, n.ID)
		}
	}
	added := 0
	for _, c := range next {
		if n, ok := keep[c.ID]; ok {
			n.Selected = false
			b.cards = append(b.cards, n)
			delete(keep, c.ID)
			added++
		}
	}
	ch := b.changed(ChangeEntity)
	b.mu.Unlock()

	if removed > 0 || added > 0 {
		log.Printf("[BOARD] Namespace %s: %d added, %d removed, %d total", prefix, added, removed, len(next))
	}
	b.notify(ch)
	return nil
}

// Snapshot returns a deep copy of the board.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var paths []DrawingPath
	if len(b.paths) > 0 {
		paths = make([]DrawingPath, len(b.paths))
	}
	for i, p := range b.paths {
		paths[i] = p.clone()
	}
	return Snapshot{
		Paths:       paths,
		Cards:       b.cardsLocked(),
		StickyNotes: b.notesLocked(),
		View:        b.view,
	}
}

// IsEmpty reports whether the board has no paths and no entities.
func (b *Board) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.paths) == 0 && len(b.cards) == 0 && len(b.notes) == 0
}

// Restore replaces the whole board with s. Paths with fewer than two
// points and entities with duplicate ids are dropped; the selection is
// rebuilt from the Selected flags, up to MaxSelection.
func (b *Board) Restore(s Snapshot) {
	paths := make([]DrawingPath, 0, len(s.Paths))
	for _, p := range s.Paths {
		if len(p.Points) >= 2 {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			paths = append(paths, p.clone())
		}
	}
	seen := make(map[string]bool)
	var sel Selection
	cards := make([]Card, 0, len(s.Cards))
	for _, c := range s.Cards {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		normalizeSize(&c.Entity, DefaultCardWidth, DefaultCardHeight)
		if c.Selected {
			sel.Toggle(c.ID, true)
		}
		c.Selected = false
		cards = append(cards, c)
	}
	notes := make([]StickyNote, 0, len(s.StickyNotes))
	for _, n := range s.StickyNotes {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		normalizeSize(&n.Entity, DefaultNoteWidth, DefaultNoteHeight)
		if n.Selected {
			sel.Toggle(n.ID, true)
		}
		n.Selected = false
		notes = append(notes, n)
	}
	view := s.View
	view.Zoom = ClampZoom(view.Zoom)

	b.mu.Lock()
	b.paths, b.cards, b.notes = paths, cards, notes
	b.selection = sel
	b.view = view
	c := b.changed(ChangeRestore)
	b.mu.Unlock()

	log.Printf("[BOARD] Restored %d paths, %d cards, %d notes", len(paths), len(cards), len(notes))
	b.notify(c)
}

// Reset clears the board back to an empty canvas with the identity view.
func (b *Board) Reset() {
	b.mu.Lock()
	b.paths, b.cards, b.notes = nil, nil, nil
	b.selection.Clear()
	b.view = DefaultView()
	c := b.changed(ChangeRestore)
	b.mu.Unlock()
	b.notify(c)
}
