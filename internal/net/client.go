package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("share connection closed")

// Conn is a client connection to a hosting board.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Dial connects to the hub at addr (host:port).
func Dial(ctx context.Context, addr string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+SharePath, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	ws.SetReadLimit(maxMessage)
	c := &Conn{ws: ws, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	go c.writeLoop()
	log.Printf("[SHARE] Connected to host %s as %s", addr, c.LocalID())
	return c, nil
}

// LocalID identifies this client's strokes to the other peers.
func (c *Conn) LocalID() string {
	return c.ws.LocalAddr().String()
}

func (c *Conn) writeLoop() {
	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[SHARE] Failed to send: %v", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send queues msg for the host.
func (c *Conn) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Run delivers incoming messages to fn until the connection ends. It
// returns nil when the connection was closed locally.
func (c *Conn) Run(fn func(Message)) error {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}
			c.Close()
			return fmt.Errorf("disconnected from host: %w", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || !msg.valid() {
			log.Printf("[SHARE] Ignoring bad message from host")
			continue
		}
		fn(msg)
	}
}

// Close ends the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
