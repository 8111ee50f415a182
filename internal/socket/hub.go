// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// client serialises writes; gorilla connections allow one concurrent writer.
type client struct {
	conn Conn
	mu   sync.Mutex
}

func (c *client) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Hub tracks open websocket connections per user. A user may have several tabs open.
type Hub struct {
	clients map[string]map[Conn]*client
	mu      sync.RWMutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[Conn]*client),
		log:     log,
	}
}

func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[Conn]*client)
	}
	h.clients[userID][conn] = &client{conn: conn}
	h.log.Debug("websocket client registered", zap.String("userId", userID))
}

func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	h.log.Debug("websocket client unregistered", zap.String("userId", userID))
}

// Disconnect closes and forgets every connection of userID and returns how many there were.
func (h *Hub) Disconnect(userID string) int {
	h.mu.Lock()
	conns := h.clients[userID]
	delete(h.clients, userID)
	h.mu.Unlock()

	for _, c := range conns {
		c.mu.Lock()
		if err := c.conn.Close(); err != nil {
			h.log.Debug("close websocket", zap.String("userId", userID), zap.Error(err))
		}
		c.mu.Unlock()
	}
	if len(conns) > 0 {
		h.log.Info("websocket clients disconnected", zap.String("userId", userID), zap.Int("count", len(conns)))
	}
	return len(conns)
}

// Online reports how many connections userID has open.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send writes message to every connection of userID. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var errs []error
	for _, c := range targets {
		if err := c.write(message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendJSON encodes v and sends it to userID.
func (h *Hub) SendJSON(userID string, v interface{}) error {
	message, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return h.Send(userID, message)
}
