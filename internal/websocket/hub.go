package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message represents a real-time sync notification broadcast to a family.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the set of active WebSocket clients, grouped by family.
type Hub struct {
	mu       sync.RWMutex
	families map[string]map[*Client]struct{}
	logger   *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		families: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

// Register adds a client to its family's set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.families[c.familyID]
	if !ok {
		set = make(map[*Client]struct{})
		h.families[c.familyID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.families[c.familyID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.families, c.familyID)
			}
		}
	}
	h.mu.Unlock()
}

// BroadcastToFamily sends a message to every client of one family.
func (h *Hub) BroadcastToFamily(familyID string, msg Message) {
	if familyID == "" {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.families[familyID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop message
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Debug("broadcast dropped", "family_id", familyID, "type", msg.Type, "clients", dropped)
	}
}

// DisconnectUser drops every feed of userID and returns how many there were.
// Their connections close with StatusPolicyViolation.
func (h *Hub) DisconnectUser(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for familyID, set := range h.families {
		for c := range set {
			if c.userID != userID {
				continue
			}
			delete(set, c)
			close(c.send)
			n++
		}
		if len(set) == 0 {
			delete(h.families, familyID)
		}
	}
	if n > 0 {
		h.logger.Debug("feeds disconnected", "user_id", userID, "clients", n)
	}
	return n
}

// ClientCount returns the number of connected clients across all families.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.families {
		n += len(set)
	}
	return n
}

// FamilyClientCount returns the number of connected clients of one family.
func (h *Hub) FamilyClientCount(familyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.families[familyID])
}
