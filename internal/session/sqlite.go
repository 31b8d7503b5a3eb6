package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StudyBoard/internal/clock"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS board_sessions (
	user_id     TEXT    NOT NULL,
	id          TEXT    NOT NULL,
	title       TEXT    NOT NULL DEFAULT '',
	blob        TEXT    NOT NULL,
	paths       INTEGER NOT NULL DEFAULT 0,
	cards       INTEGER NOT NULL DEFAULT 0,
	notes       INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_board_sessions_updated ON board_sessions(user_id, updated_at DESC);
`

// ApplySchema creates the session table.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply session schema: %w", err)
	}
	return nil
}

// SQLStore keeps sessions in a SQLite database. The caller opens the
// database with the modernc.org/sqlite driver.
type SQLStore struct {
	DB    *sql.DB
	Clock clock.Clock
}

// NewSQLStore applies the schema and returns a store on db.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if err := ApplySchema(db); err != nil {
		return nil, err
	}
	return &SQLStore{DB: db, Clock: clock.Real{}}, nil
}

// OpenSQLite opens path with the pragmas the store expects.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

func millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}

func (s *SQLStore) List(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, paths, cards, notes, created_at, updated_at
		FROM board_sessions WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var created, updated int64
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Paths, &sum.Cards, &sum.StickyNotes, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.CreatedAt, sum.UpdatedAt = time.UnixMilli(created), time.UnixMilli(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, userID, id string) (*Session, error) {
	var raw string
	var created, updated int64
	sess := &Session{ID: id, UserID: userID}
	err := s.DB.QueryRowContext(ctx,
		`SELECT title, blob, created_at, updated_at FROM board_sessions WHERE user_id = ? AND id = ?`,
		userID, id).Scan(&sess.Title, &raw, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s/%s: %w", userID, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", userID, id, err)
	}
	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess.setBlob(b)
	sess.CreatedAt, sess.UpdatedAt = time.UnixMilli(created), time.UnixMilli(updated)
	return sess, nil
}

func (s *SQLStore) Put(ctx context.Context, sess *Session) error {
	if sess.ID == "" || sess.UserID == "" {
		return fmt.Errorf("put session: user and id are required")
	}
	raw, err := json.Marshal(sess.blob())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	now := millis(s.Clock.Now())
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.CreatedAt = millis(sess.CreatedAt)
	sess.UpdatedAt = now

	// created_at is kept from the first write.
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO board_sessions (user_id, id, title, blob, paths, cards, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			title = excluded.title, blob = excluded.blob,
			paths = excluded.paths, cards = excluded.cards, notes = excluded.notes,
			updated_at = excluded.updated_at`,
		sess.UserID, sess.ID, sess.Title, string(raw),
		len(sess.Paths), len(sess.Cards), len(sess.StickyNotes),
		sess.CreatedAt.UnixMilli(), sess.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	var created int64
	if err := s.DB.QueryRowContext(ctx,
		`SELECT created_at FROM board_sessions WHERE user_id = ? AND id = ?`,
		sess.UserID, sess.ID).Scan(&created); err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	sess.CreatedAt = time.UnixMilli(created)
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM board_sessions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", userID, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s/%s: %w", userID, id, ErrNotFound)
	}
	return nil
}
