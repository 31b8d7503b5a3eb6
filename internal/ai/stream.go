package ai

import (
	"bufio"
	"io"
	"sync"
)

const maxLineSize = 1 << 20

// Stream reads events from a response body. It owns the body until Close.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	once    sync.Once
}

// NewStream wraps an event-stream body.
func NewStream(body io.ReadCloser) *Stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Stream{body: body, scanner: sc}
}

// Next returns the next event, io.EOF at the end of the stream, or the
// read error that interrupted it.
func (s *Stream) Next() (Event, error) {
	for s.scanner.Scan() {
		if ev, ok := ParseLine(s.scanner.Text()); ok {
			return ev, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close releases the body. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() { err = s.body.Close() })
	return err
}
