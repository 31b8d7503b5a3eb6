package net

import (
	"fmt"
	"strings"

	"StudyBoard/internal/state"
)

const (
	LinkScheme = "studyboard://"
	SharePath  = "/share"
	HostOwner  = "host"
)

// Message types exchanged between peers.
const (
	TypeDraw  = "draw"
	TypeUndo  = "undo"
	TypeClear = "clear"
)

// Message is one live-share event. Draw carries the full committed path,
// undo carries only its id, clear names the owner whose paths go away.
type Message struct {
	Type    string             `json:"type"`
	Path    *state.DrawingPath `json:"path,omitempty"`
	OwnerID string             `json:"owner_id,omitempty"`
}

func (m Message) valid() bool {
	switch m.Type {
	case TypeDraw:
		return m.Path != nil && len(m.Path.Points) >= 2 && m.Path.ID != ""
	case TypeUndo:
		return m.Path != nil && m.Path.ID != ""
	case TypeClear:
		return m.OwnerID != ""
	}
	return false
}

// ShareLink formats the link a host hands out.
func ShareLink(host string, port int) string {
	return fmt.Sprintf("%s%s:%d", LinkScheme, host, port)
}

// ParseLink extracts host:port from a share link. A bare address is
// accepted as is.
func ParseLink(link string) (string, error) {
	addr := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(link), LinkScheme), "/")
	if addr == "" || strings.ContainsAny(addr, "/ ") || !strings.Contains(addr, ":") {
		return "", fmt.Errorf("invalid share link %q", link)
	}
	return addr, nil
}
