package net

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	maxMessage   = 4 << 20
)

type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is the host side of live share. Every message from a peer is handed
// to OnMessage and relayed to the other peers.
type Hub struct {
	OnMessage func(Message)

	upgrader websocket.Upgrader

	mu     sync.RWMutex
	peers  map[*peer]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		peers: make(map[*peer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Peers are desktop clients on the LAN, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves the peer until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SHARE] Upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	p := &peer{id: r.RemoteAddr, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(p) {
		conn.Close()
		return
	}
	go h.writeLoop(p)
	h.readLoop(p)
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	log.Printf("[SHARE] Peer connected: %s", p.id)
	return true
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.send)
	log.Printf("[SHARE] Peer disconnected: %s", p.id)
}

func (h *Hub) readLoop(p *peer) {
	defer func() {
		h.remove(p)
		p.conn.Close()
	}()
	p.conn.SetReadLimit(maxMessage)
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || !msg.valid() {
			log.Printf("[SHARE] Ignoring bad message from %s", p.id)
			continue
		}
		if h.OnMessage != nil {
			h.OnMessage(msg)
		}
		h.broadcast(data, p)
	}
}

func (h *Hub) writeLoop(p *peer) {
	for data := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[SHARE] Error sending to %s: %v", p.id, err)
			p.conn.Close()
			// Drain until readLoop removes the peer and closes send.
			for range p.send {
			}
			return
		}
	}
}

// broadcast queues data for every peer except exclude. A peer whose queue
// is full is disconnected.
func (h *Hub) broadcast(data []byte, exclude *peer) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.peers {
		if p == exclude {
			continue
		}
		select {
		case p.send <- data:
		default:
			log.Printf("[SHARE] Peer %s is too slow, disconnecting", p.id)
			p.conn.Close()
		}
	}
}

// Send broadcasts a host message to every peer.
func (h *Hub) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.broadcast(data, nil)
	return nil
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every peer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.peers))
	for p := range h.peers {
		conns = append(conns, p.conn)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
