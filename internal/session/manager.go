package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"StudyBoard/internal/clock"
	"StudyBoard/internal/state"
)

const autosaveTimeout = 30 * time.Second

// Manager binds a board to a Store: explicit save/load/new/delete plus a
// debounced autosave driven by board changes.
type Manager struct {
	store  Store
	board  *state.Board
	userID string

	// OnSaved runs after every successful save, explicit or automatic.
	OnSaved func(Session)

	autosave    *Autosaver
	unsubscribe func()

	// saveMu serializes store writes with New, Load and Delete, so a
	// waiting autosave never writes state that was replaced under it.
	saveMu    sync.Mutex
	mu        sync.Mutex
	sessionID string
	createdAt time.Time
	dirty     bool // changed since the last save, load or reset
}

type Option func(*managerOptions)

type managerOptions struct {
	clock clock.Clock
	delay time.Duration
}

func WithClock(c clock.Clock) Option { return func(o *managerOptions) { o.clock = c } }

func WithAutosaveDelay(d time.Duration) Option { return func(o *managerOptions) { o.delay = d } }

func NewManager(store Store, board *state.Board, userID string, opts ...Option) *Manager {
	o := managerOptions{clock: clock.Real{}, delay: DefaultAutosaveDelay}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Manager{store: store, board: board, userID: userID}
	m.autosave = NewAutosaver(o.clock, o.delay, m.autoSave)
	m.unsubscribe = board.Subscribe(func(c state.Change) {
		switch c.Kind {
		case state.ChangePath, state.ChangeEntity, state.ChangeView:
			m.mu.Lock()
			m.dirty = true
			m.mu.Unlock()
			m.autosave.Touch()
		}
	})
	return m
}

// SessionID is the id of the session the board is bound to, or "" before
// the first save.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// AutosavePending reports whether a save is scheduled.
func (m *Manager) AutosavePending() bool { return m.autosave.Pending() }

// Save writes the current board, assigning a session id on first save.
func (m *Manager) Save(ctx context.Context) (Session, error) {
	m.autosave.Cancel()
	return m.save(ctx)
}

func (m *Manager) save(ctx context.Context) (Session, error) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	return m.saveLocked(ctx)
}

// saveLocked requires saveMu. The id and the snapshot are taken together
// so a save never pairs one session's id with another's content.
func (m *Manager) saveLocked(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.sessionID == "" {
		m.sessionID = uuid.NewString()
		m.createdAt = time.Time{}
		log.Printf("[SESSION] New session %s", m.sessionID)
	}
	id, created := m.sessionID, m.createdAt
	m.dirty = false
	sess := FromSnapshot(m.board.Snapshot())
	m.mu.Unlock()

	sess.ID, sess.UserID, sess.CreatedAt = id, m.userID, created
	if err := m.store.Put(ctx, &sess); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return Session{}, err
	}

	m.mu.Lock()
	if m.sessionID == id {
		m.createdAt = sess.CreatedAt
	}
	m.mu.Unlock()

	log.Printf("[SESSION] Saved %s (%d paths, %d cards, %d notes)", id, len(sess.Paths), len(sess.Cards), len(sess.StickyNotes))
	if m.OnSaved != nil {
		m.OnSaved(sess)
	}
	return sess, nil
}

func (m *Manager) autoSave() {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	// New, Load or an explicit save may have run while this waited.
	m.mu.Lock()
	dirty := m.dirty
	m.mu.Unlock()
	if !dirty || m.board.IsEmpty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if _, err := m.saveLocked(ctx); err != nil {
		log.Printf("[SESSION] Autosave failed: %v", err)
	}
}

// Load replaces the board with a stored session and binds to it.
func (m *Manager) Load(ctx context.Context, id string) error {
	sess, err := m.store.Get(ctx, m.userID, id)
	if err != nil {
		return err
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	m.autosave.Cancel()
	m.mu.Lock()
	m.sessionID, m.createdAt, m.dirty = sess.ID, sess.CreatedAt, false
	m.mu.Unlock()

	m.board.Restore(sess.Snapshot())
	log.Printf("[SESSION] Loaded %s", sess.ID)
	return nil
}

// New clears the board and unbinds it from any session.
func (m *Manager) New() {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.autosave.Cancel()
	m.mu.Lock()
	m.sessionID, m.createdAt, m.dirty = "", time.Time{}, false
	m.mu.Unlock()
	m.board.Reset()
}

// Delete removes a stored session. Deleting the bound session also
// clears the board.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	if err := m.store.Delete(ctx, m.userID, id); err != nil {
		return err
	}
	log.Printf("[SESSION] Deleted %s", id)
	if m.SessionID() == id {
		m.resetLocked()
	}
	return nil
}

func (m *Manager) List(ctx context.Context) ([]Summary, error) {
	out, err := m.store.List(ctx, m.userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", m.userID, err)
	}
	return out, nil
}

// Close stops autosave and detaches from the board.
func (m *Manager) Close() {
	m.autosave.Stop()
	m.unsubscribe()
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
