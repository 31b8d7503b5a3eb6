package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteStore talks to a session service over REST.
type RemoteStore struct {
	base string
	hc   *http.Client
}

// NewRemoteStore returns a client for the service at baseURL. A nil hc
// uses a client with a 30s timeout.
func NewRemoteStore(baseURL string, hc *http.Client) *RemoteStore {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteStore{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (s *RemoteStore) endpoint(userID string, id ...string) string {
	u := s.base + "/api/sessions/" + url.PathEscape(userID)
	if len(id) > 0 {
		u += "/" + url.PathEscape(id[0])
	}
	return u
}

func (s *RemoteStore) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *RemoteStore) List(ctx context.Context, userID string) ([]Summary, error) {
	var out []Summary
	if err := s.do(ctx, http.MethodGet, s.endpoint(userID), nil, &out); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *RemoteStore) Get(ctx context.Context, userID, id string) (*Session, error) {
	var out Session
	if err := s.do(ctx, http.MethodGet, s.endpoint(userID, id), nil, &out); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", userID, id, err)
	}
	return &out, nil
}

// Put sends the session and copies the stored timestamps back into sess.
func (s *RemoteStore) Put(ctx context.Context, sess *Session) error {
	var out Session
	if err := s.do(ctx, http.MethodPost, s.endpoint(sess.UserID, sess.ID), sess, &out); err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	sess.CreatedAt, sess.UpdatedAt = out.CreatedAt, out.UpdatedAt
	return nil
}

func (s *RemoteStore) Delete(ctx context.Context, userID, id string) error {
	if err := s.do(ctx, http.MethodDelete, s.endpoint(userID, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", userID, id, err)
	}
	return nil
}
