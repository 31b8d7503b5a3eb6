package ai

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Event
	}{
		{`data: {"type":"thinking","content":"hmm"}`, Thinking{Text: "hmm"}},
		{`data: {"type":"card","cards":[{"id":"1","title":"T","content":"C"}]}`,
			CardSnapshot{Cards: []GeneratedCard{{ID: "1", Title: "T", Content: "C"}}}},
		{`data: {"type":"partial","content":"so far"}`, TextSnapshot{Text: "so far"}},
		{`data:{"type":"complete","content":"done"}`, Complete{Text: "done"}},
		{`data: {"type":"error","error":"quota"}`, StreamError{Message: "quota"}},
	}
	for _, tt := range tests {
		got, ok := ParseLine(tt.line)
		require.True(t, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestParseLineSkipsNonEvents(t *testing.T) {
	for _, line := range []string{"", ": keepalive", "event: message", "data: [DONE]", "data:   "} {
		_, ok := ParseLine(line)
		assert.False(t, ok, line)
	}
}

func TestParseLineUnparseable(t *testing.T) {
	ev, ok := ParseLine(`data: {"type":"card","cards":[`)
	require.True(t, ok)
	u, isU := ev.(Unparseable)
	require.True(t, isU)
	assert.Error(t, u.Err)

	ev, _ = ParseLine(`data: {"type":"mystery"}`)
	assert.IsType(t, Unparseable{}, ev)
}

func TestStreamNext(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"type\":\"thinking\",\"content\":\"a\"}\n\n" +
			": ping\n" +
			"data: {\"type\":\"complete\",\"cards\":[]}\n"))
	s := NewStream(body)
	defer s.Close()

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, Thinking{Text: "a"}, ev)
	ev, err = s.Next()
	require.NoError(t, err)
	assert.IsType(t, Complete{}, ev)
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
}
