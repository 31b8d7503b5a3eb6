package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/clock"
	"StudyBoard/internal/state"
)

// recordingStore counts writes and remembers when they happened.
type recordingStore struct {
	Store
	clock clock.Clock

	mu     sync.Mutex
	puts   []time.Time
	putErr error
}

func (s *recordingStore) Put(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	s.puts = append(s.puts, s.clock.Now())
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Put(ctx, sess)
}

func (s *recordingStore) saves() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.puts...)
}

func stroke(x float64) state.DrawingPath {
	return state.DrawingPath{
		Points: []state.Point{{X: x, Y: 0}, {X: x + 10, Y: 10}},
		Color:  "#000000", StrokeWidth: 3, Tool: state.ToolPen,
	}
}

func newTestManager(t *testing.T) (*Manager, *state.Board, *recordingStore, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := &recordingStore{Store: openTestStore(t, fake), clock: fake}
	board := state.NewBoard()
	m := NewManager(store, board, "alice", WithClock(fake), WithAutosaveDelay(3*time.Second))
	t.Cleanup(m.Close)
	return m, board, store, fake
}

func TestAutosaveDebouncesBurst(t *testing.T) {
	m, board, store, fake := newTestManager(t)
	start := fake.Now()

	// Five mutations spread over one second.
	board.AddPath(stroke(0))
	for i := 1; i < 5; i++ {
		fake.Advance(250 * time.Millisecond)
		board.AddPath(stroke(float64(i) * 20))
	}
	last := fake.Now()
	assert.Equal(t, time.Second, last.Sub(start))
	assert.True(t, m.AutosavePending())

	fake.Advance(3*time.Second - time.Millisecond)
	assert.Empty(t, store.saves())

	fake.Advance(time.Millisecond)
	saves := store.saves()
	require.Len(t, saves, 1)
	assert.Equal(t, 3*time.Second, saves[0].Sub(last))

	fake.Advance(10 * time.Second)
	assert.Len(t, store.saves(), 1)
	assert.False(t, m.AutosavePending())

	id := m.SessionID()
	require.NotEmpty(t, id)
	got, err := store.Get(context.Background(), "alice", id)
	require.NoError(t, err)
	assert.Len(t, got.Paths, 5)
}

func TestAutosaveSkipsEmptyBoard(t *testing.T) {
	m, board, store, fake := newTestManager(t)

	board.Pan(10, 10)
	fake.Advance(5 * time.Second)
	assert.Empty(t, store.saves())
	assert.Empty(t, m.SessionID())
}

func TestAutosaveIgnoresSelection(t *testing.T) {
	m, board, _, _ := newTestManager(t)
	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1"}}))
	m.autosave.Cancel()

	board.Select("c1", false)
	assert.False(t, m.AutosavePending())
}

func TestAutosaveErrorIsSwallowed(t *testing.T) {
	m, board, store, fake := newTestManager(t)
	store.putErr = errors.New("disk full")

	board.AddPath(stroke(0))
	assert.NotPanics(t, func() { fake.Advance(3 * time.Second) })
	assert.Len(t, store.saves(), 1)

	store.mu.Lock()
	store.putErr = nil
	store.mu.Unlock()
	board.AddPath(stroke(20))
	fake.Advance(3 * time.Second)
	assert.Len(t, store.saves(), 2)
	assert.NotEmpty(t, m.SessionID())
}

func TestSaveAssignsIDOnceAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	m, board, _, fake := newTestManager(t)
	var saved []Session
	m.OnSaved = func(s Session) { saved = append(saved, s) }

	board.AddPath(stroke(0))
	first, err := m.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.False(t, m.AutosavePending())

	fake.Advance(time.Minute)
	second, err := m.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Len(t, saved, 2)
}

func TestLoadRestoresBoardWithoutAutosave(t *testing.T) {
	ctx := context.Background()
	m, board, store, fake := newTestManager(t)

	require.NoError(t, board.AddCard(state.Card{Entity: state.Entity{ID: "c1", X: 5, Y: 6}, Title: "Cells"}))
	board.AddPath(stroke(0))
	board.SetView(state.ViewState{OffsetX: 12, OffsetY: -3, Zoom: 2})
	saved, err := m.Save(ctx)
	require.NoError(t, err)
	want := board.Snapshot()

	m.New()
	assert.True(t, board.IsEmpty())
	assert.Empty(t, m.SessionID())

	require.NoError(t, m.Load(ctx, saved.ID))
	assert.Equal(t, want, board.Snapshot())
	assert.Equal(t, saved.ID, m.SessionID())
	assert.False(t, m.AutosavePending())

	fake.Advance(10 * time.Second)
	assert.Len(t, store.saves(), 1)
}

func TestLoadMissingSessionKeepsBoard(t *testing.T) {
	m, board, _, _ := newTestManager(t)
	board.AddPath(stroke(0))

	err := m.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, board.Paths(), 1)
}

func TestDeleteCurrentSessionResetsBoard(t *testing.T) {
	ctx := context.Background()
	m, board, _, _ := newTestManager(t)

	board.AddPath(stroke(0))
	sess, err := m.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, sess.ID))
	assert.True(t, board.IsEmpty())
	assert.Empty(t, m.SessionID())

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteOtherSessionKeepsBoard(t *testing.T) {
	ctx := context.Background()
	m, board, store, _ := newTestManager(t)

	other := sampleSession("alice", "other")
	require.NoError(t, store.Store.Put(ctx, &other))
	board.AddPath(stroke(0))
	_, err := m.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "other"))
	assert.Len(t, board.Paths(), 1)
	assert.NotEmpty(t, m.SessionID())
}

func TestCloseStopsAutosave(t *testing.T) {
	m, board, store, fake := newTestManager(t)
	board.AddPath(stroke(0))
	m.Close()

	board.AddPath(stroke(20))
	fake.Advance(10 * time.Second)
	assert.Empty(t, store.saves())
}

// gateStore holds every Put until release is closed.
type gateStore struct {
	Store
	entered chan struct{}
	release chan struct{}
}

func (s *gateStore) Put(ctx context.Context, sess *Session) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return s.Store.Put(ctx, sess)
}

func TestAutosaveWaitingBehindSaveDoesNotPersistReset(t *testing.T) {
	ctx := context.Background()
	fake := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := &gateStore{
		Store:   openTestStore(t, fake),
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	board := state.NewBoard()
	m := NewManager(store, board, "alice", WithClock(fake), WithAutosaveDelay(3*time.Second))
	t.Cleanup(m.Close)

	board.AddPath(stroke(0))
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_, err := m.Save(ctx)
		assert.NoError(t, err)
	}()
	<-store.entered

	// A change while the explicit save is stuck arms the autosave timer.
	board.AddPath(stroke(20))
	go func() {
		defer wg.Done()
		fake.Advance(3 * time.Second)
	}()
	require.Eventually(t, func() bool { return fake.Pending() == 0 }, time.Second, time.Millisecond)

	go func() {
		defer wg.Done()
		m.New()
	}()
	time.Sleep(10 * time.Millisecond)
	close(store.release)
	wg.Wait()

	assert.True(t, board.IsEmpty())
	assert.Empty(t, m.SessionID())

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotZero(t, list[0].Paths)
}

func TestLoadDropsAutosaveOfReplacedBoard(t *testing.T) {
	ctx := context.Background()
	m, board, store, fake := newTestManager(t)

	other := sampleSession("alice", "other")
	require.NoError(t, store.Store.Put(ctx, &other))
	board.AddPath(stroke(0))
	mine, err := m.Save(ctx)
	require.NoError(t, err)

	board.AddPath(stroke(20))
	require.NoError(t, m.Load(ctx, "other"))
	fake.Advance(10 * time.Second)

	assert.Len(t, store.saves(), 1)
	got, err := store.Get(ctx, "alice", mine.ID)
	require.NoError(t, err)
	assert.Len(t, got.Paths, 1)
}

func TestSaveAfterNewCreatesFreshSession(t *testing.T) {
	ctx := context.Background()
	m, board, store, _ := newTestManager(t)

	board.AddPath(stroke(0))
	board.AddPath(stroke(20))
	first, err := m.Save(ctx)
	require.NoError(t, err)

	m.New()
	board.AddPath(stroke(40))
	second, err := m.Save(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := store.Get(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.Len(t, got.Paths, 2)
	assert.Equal(t, first.Paths, got.Paths)

	got, err = store.Get(ctx, "alice", second.ID)
	require.NoError(t, err)
	assert.Len(t, got.Paths, 1)

	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
