package services

import (
	"encoding/json"
	"sync"

	"explorer/internal/controller"
	"explorer/types"

	"github.com/charmbracelet/log"
)

// Hub fans events out to every connected websocket client. It is the
// controller's Observer: control values and rejected rebinds are broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*WSClient
	log     *log.Logger
}

func safeCloseBytes(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]*WSClient{},
		log:     log.With("component", "hub"),
	}
}

func (h *Hub) Add(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[c.id]; ok {
		safeCloseBytes(old.send)
		old.close()
	}

	h.clients[c.id] = c
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		safeCloseBytes(c.send)
		c.close()
	}
}

// removeClient drops c only if it is still the registered client for its id.
func (h *Hub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		safeCloseBytes(c.send)
		c.close()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[string]*WSClient{}
	h.mu.Unlock()

	for _, c := range clients {
		safeCloseBytes(c.send)
		c.close()
	}
}

// SendTo never blocks. The send happens under the read lock so the channel
// cannot be closed underneath it.
func (h *Hub) SendTo(clientId string, event types.WSEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", "type", event.Type, "err", err)
		return
	}

	full := false
	h.mu.RLock()
	if c, ok := h.clients[clientId]; ok {
		select {
		case c.send <- b:
		default:
			full = true
		}
	}
	h.mu.RUnlock()

	if full {
		h.log.Warn("dropping slow client", "clientId", clientId)
		h.Remove(clientId)
	}
}

// Broadcast never blocks; clients whose buffer is full are dropped.
func (h *Hub) Broadcast(event types.WSEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", "type", event.Type, "err", err)
		return
	}

	var slow []string
	h.mu.RLock()
	for id, c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.log.Warn("dropping slow client", "clientId", id)
		h.Remove(id)
	}
}

func (h *Hub) ControlChanged(state controller.ControlState) {
	resp := controlResponse(state)
	h.Broadcast(types.WSEvent{Type: "control", Control: &resp})
}

func (h *Hub) ValidationFailed(err *controller.ValidationError) {
	id := err.ControlID
	h.Broadcast(types.WSEvent{Type: "validation", ControlID: &id, Message: err.Message})
}
