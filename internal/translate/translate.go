// Package translate is the client for the sticky-note translation
// service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"StudyBoard/internal/state"
)

const (
	DefaultSource = "eng_Latn"
	DefaultTarget = "hin_Deva"
)

var ErrFailed = errors.New("translation failed")

type request struct {
	Text    string `json:"text"`
	SrcLang string `json:"src_lang"`
	TgtLang string `json:"tgt_lang"`
}

type response struct {
	Success    bool   `json:"success"`
	Translated string `json:"translated"`
	Error      string `json:"error,omitempty"`
}

// Translator turns text from one language code into another.
type Translator interface {
	Translate(ctx context.Context, text, src, tgt string) (string, error)
}

// Client calls POST {base}/translate.
type Client struct {
	base string
	hc   *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

// Translate sends text for translation. Empty language codes use the
// defaults.
func (c *Client) Translate(ctx context.Context, text, src, tgt string) (string, error) {
	if src == "" {
		src = DefaultSource
	}
	if tgt == "" {
		tgt = DefaultTarget
	}
	body, err := json.Marshal(request{Text: text, SrcLang: src, TgtLang: tgt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("translate: %s", resp.Status)
		}
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrFailed, msg)
	}
	return out.Translated, nil
}

// Notes translates the text of every selected sticky note in place and
// returns how many were updated. Blank notes are skipped. It stops at the
// first failure; notes translated before it keep their new text.
func Notes(ctx context.Context, board *state.Board, t Translator, src, tgt string) (int, error) {
	n := 0
	for _, note := range board.SelectedNotes() {
		if strings.TrimSpace(note.Text) == "" {
			continue
		}
		out, err := t.Translate(ctx, note.Text, src, tgt)
		if err != nil {
			return n, fmt.Errorf("note %s: %w", note.ID, err)
		}
		if board.SetNoteText(note.ID, out) {
			n++
		}
	}
	log.Printf("[TRANSLATE] Translated %d notes", n)
	return n, nil
}
