package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/clock"
)

func newRemote(t *testing.T) (*RemoteStore, *SQLStore) {
	t.Helper()
	backing := openTestStore(t, clock.Real{})
	srv := httptest.NewServer(NewHandler(backing))
	t.Cleanup(srv.Close)
	return NewRemoteStore(srv.URL+"/", srv.Client()), backing
}

func TestRemoteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	remote, backing := newRemote(t)

	sess := sampleSession("alice", "s1")
	require.NoError(t, remote.Put(ctx, &sess))
	assert.False(t, sess.CreatedAt.IsZero())

	stored, err := backing.Get(ctx, "alice", "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Snapshot(), stored.Snapshot())

	got, err := remote.Get(ctx, "alice", "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.Snapshot(), got.Snapshot())
	assert.Equal(t, "Photosynthesis", got.Title)
	assert.True(t, got.CreatedAt.Equal(sess.CreatedAt))

	list, err := remote.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].ID)

	require.NoError(t, remote.Delete(ctx, "alice", "s1"))
	_, err = remote.Get(ctx, "alice", "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, remote.Delete(ctx, "alice", "s1"), ErrNotFound)
}

func TestRemoteStoreEscapesPath(t *testing.T) {
	ctx := context.Background()
	remote, backing := newRemote(t)

	sess := sampleSession("a b", "x/y")
	require.NoError(t, remote.Put(ctx, &sess))
	_, err := backing.Get(ctx, "a b", "x/y")
	assert.NoError(t, err)
}

func TestRemoteStoreKeepsPercentInKeys(t *testing.T) {
	ctx := context.Background()
	remote, backing := newRemote(t)

	sess := sampleSession("a%41", "s%2F1")
	require.NoError(t, remote.Put(ctx, &sess))
	_, err := backing.Get(ctx, "a%41", "s%2F1")
	assert.NoError(t, err)
	_, err = backing.Get(ctx, "aA", "s/1")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := remote.List(ctx, "a%41")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s%2F1", list[0].ID)

	list, err = remote.List(ctx, "aA")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHandlerUsesPathKey(t *testing.T) {
	backing := openTestStore(t, clock.Real{})
	h := NewHandler(backing)

	body, err := json.Marshal(sampleSession("mallory", "other"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/alice/s1", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = backing.Get(context.Background(), "alice", "s1")
	assert.NoError(t, err)
	_, err = backing.Get(context.Background(), "mallory", "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerRejectsBadBody(t *testing.T) {
	h := NewHandler(openTestStore(t, clock.Real{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/alice/s1", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoteStoreReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemoteStore(srv.URL, nil).List(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "db down")
}
