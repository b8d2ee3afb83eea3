package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"hav/internal/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler streams ledger events over a websocket. Client frames are
// read only to notice disconnects.
type EventsHandler struct {
	Hub *ws.Hub
	Log logrus.FieldLogger
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &ws.Connection{
		Conn: conn,
		Send: make(chan []byte, 64),
		ID:   uuid.NewString(),
	}
	if !h.Hub.Join(c) {
		conn.Close()
		return
	}
	go c.StartWrite()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.Hub.Leave(c)
}
