// Package ai talks to the card generation service and merges its
// streamed snapshots onto a board.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Action names an operation over selected entities.
type Action string

const (
	Summarize    Action = "summarize"
	ActionPoints Action = "actionPoints"
	MindMap      Action = "mindMap"
	Flashcards   Action = "flashcards"
)

// ProducesCards reports whether the action streams entity lists rather
// than free text.
func (a Action) ProducesCards() bool {
	return a == MindMap || a == Flashcards
}

// Title is the heading of the card that holds a free-text result.
func (a Action) Title() string {
	switch a {
	case Summarize:
		return "Summary"
	case ActionPoints:
		return "Action points"
	case MindMap:
		return "Mind map"
	case Flashcards:
		return "Flashcards"
	}
	return string(a)
}

func (a Action) valid() bool {
	switch a {
	case Summarize, ActionPoints, MindMap, Flashcards:
		return true
	}
	return false
}

const (
	MaxGenerateCount = 10
	MaxActionInputs  = 4
)

var ErrInvalidRequest = errors.New("invalid ai request")

// GenerateRequest asks for Count new cards about Prompt.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Count  int    `json:"count"`
}

func (r GenerateRequest) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidRequest)
	}
	if r.Count < 1 || r.Count > MaxGenerateCount {
		return fmt.Errorf("%w: count %d outside 1..%d", ErrInvalidRequest, r.Count, MaxGenerateCount)
	}
	return nil
}

// ActionRequest runs Action over the contents of 1 to 4 entities.
type ActionRequest struct {
	Action   Action   `json:"action"`
	Contents []string `json:"contents"`
}

func (r ActionRequest) validate() error {
	if !r.Action.valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, r.Action)
	}
	if len(r.Contents) < 1 || len(r.Contents) > MaxActionInputs {
		return fmt.Errorf("%w: %d inputs, want 1..%d", ErrInvalidRequest, len(r.Contents), MaxActionInputs)
	}
	return nil
}

// Client opens event streams against the AI service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil hc uses a client without
// timeout, since streams are long-lived and bounded by their context.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Generate starts a card generation stream.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Stream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return c.open(ctx, "/api/canvas/generate", req)
}

// Action starts an action stream over selected contents.
func (c *Client) Action(ctx context.Context, req ActionRequest) (*Stream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return c.open(ctx, "/api/canvas/action", req)
}

func (c *Client) open(ctx context.Context, path string, body any) (*Stream, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("post %s: %s: %s", path, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return NewStream(resp.Body), nil
}
