package ws

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"hav/internal/ledger"
)

// Connection is one subscriber to the ledger event stream.
type Connection struct {
	Conn *websocket.Conn
	Send chan []byte
	ID   string
}

// Hub fans ledger events out to every connected subscriber.
type Hub struct {
	Register   chan *Connection
	Unregister chan *Connection
	Broadcast  chan []byte

	conns map[*Connection]bool
	done  chan struct{}
	log   logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		Register:   make(chan *Connection),
		Unregister: make(chan *Connection),
		Broadcast:  make(chan []byte, 256),
		conns:      make(map[*Connection]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Observe queues e for broadcast. Events are dropped when the queue is full
// so the ledger never waits on subscribers.
func (h *Hub) Observe(e ledger.Event) {
	b, err := json.Marshal(struct {
		Type  string       `json:"type"`
		Event ledger.Event `json:"event"`
	}{Type: "event", Event: e})
	if err != nil {
		h.log.WithError(err).Error("marshal event")
		return
	}
	select {
	case h.Broadcast <- b:
	default:
		h.log.WithField("event", e.ID).Warn("broadcast queue full, event dropped")
	}
}

// Run serves the hub until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.Register:
			h.conns[c] = true
			h.log.WithField("conn", c.ID).Debug("subscriber joined")
		case c := <-h.Unregister:
			if h.conns[c] {
				delete(h.conns, c)
				close(c.Send)
			}
			h.log.WithField("conn", c.ID).Debug("subscriber left")
		case msg := <-h.Broadcast:
			for c := range h.conns {
				select {
				case c.Send <- msg:
				default:
					// slow reader
					delete(h.conns, c)
					close(c.Send)
				}
			}
		case <-ctx.Done():
			for c := range h.conns {
				delete(h.conns, c)
				close(c.Send)
			}
			return
		}
	}
}

// Join registers c. It reports false once the hub has stopped.
func (h *Hub) Join(c *Connection) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters c; it is a no-op after the hub has stopped.
func (h *Hub) Leave(c *Connection) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// StartWrite drains Send into the socket until Send is closed.
func (c *Connection) StartWrite() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
