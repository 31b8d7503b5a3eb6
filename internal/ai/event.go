package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GeneratedCard is one entity produced by the AI service.
type GeneratedCard struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Event is one decoded stream event. The concrete types are Thinking,
// CardSnapshot, TextSnapshot, Complete, StreamError and Unparseable.
type Event interface {
	eventType() string
}

// Thinking carries a chunk of reasoning text; chunks are concatenated in
// arrival order.
type Thinking struct{ Text string }

// CardSnapshot is the full list of entities produced so far. It replaces
// any earlier snapshot of the same request.
type CardSnapshot struct{ Cards []GeneratedCard }

// TextSnapshot is the full free-text result produced so far.
type TextSnapshot struct{ Text string }

// Complete is the final snapshot: Cards for entity results, Text for
// free-text results.
type Complete struct {
	Cards []GeneratedCard
	Text  string
}

// StreamError is a typed error reported by the service.
type StreamError struct{ Message string }

// Unparseable is a data line that could not be decoded. It is skipped.
type Unparseable struct {
	Raw string
	Err error
}

func (Thinking) eventType() string     { return "thinking" }
func (CardSnapshot) eventType() string { return "card" }
func (TextSnapshot) eventType() string { return "partial" }
func (Complete) eventType() string     { return "complete" }
func (StreamError) eventType() string  { return "error" }
func (Unparseable) eventType() string  { return "unparseable" }

type wireEvent struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Cards   []GeneratedCard `json:"cards,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ParseLine decodes one line of the stream. Lines that are not "data:"
// events (comments, blank separators, the [DONE] marker) report ok=false.
// Decoding never fails: bad payloads become Unparseable.
func ParseLine(line string) (ev Event, ok bool) {
	line = strings.TrimSpace(line)
	payload, found := strings.CutPrefix(line, "data:")
	if !found {
		return nil, false
	}
	payload = strings.TrimSpace(payload)
	if payload == "" || payload == "[DONE]" {
		return nil, false
	}

	var w wireEvent
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return Unparseable{Raw: payload, Err: err}, true
	}
	switch w.Type {
	case "thinking":
		return Thinking{Text: w.Content}, true
	case "card":
		return CardSnapshot{Cards: w.Cards}, true
	case "partial":
		return TextSnapshot{Text: w.Content}, true
	case "complete":
		return Complete{Cards: w.Cards, Text: w.Content}, true
	case "error":
		msg := w.Error
		if msg == "" {
			msg = w.Content
		}
		return StreamError{Message: msg}, true
	}
	return Unparseable{Raw: payload, Err: fmt.Errorf("unknown event type %q", w.Type)}, true
}
