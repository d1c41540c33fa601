// Package websocket pushes change events to connected clients so they can
// recompute derived totals.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Entities carried in Message.Entity.
const (
	EntityChild       = "child"
	EntityCategory    = "category"
	EntityActivity    = "activity"
	EntityPoints      = "points"
	EntityAchievement = "achievement"
	EntityTask        = "task"
	EntityTimeGoal    = "time_goal"
	EntityReward      = "reward"
	EntityBackup      = "backup"
	EntityTimer       = "timer"
)

// Actions carried in Message.Action.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionCompleted = "completed"
	ActionUnlocked  = "unlocked"
	ActionRedeemed  = "redeemed"
	ActionWarning   = "warning"
	ActionExceeded  = "exceeded"
	ActionPaused    = "paused"
	ActionResumed   = "resumed"
	ActionExpired   = "expired"
)

// Message is one change notification. ChildID is empty for events that
// concern every client, such as backups.
type Message struct {
	Type    string         `json:"type"`
	Entity  string         `json:"entity"`
	Action  string         `json:"action"`
	ID      string         `json:"id,omitempty"`
	ChildID string         `json:"child_id,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

func NewMessage(entity, action, childID, id string, extra map[string]any) Message {
	return Message{
		Type:    entity + "_" + action,
		Entity:  entity,
		Action:  action,
		ID:      id,
		ChildID: childID,
		Extra:   extra,
	}
}

// Hub maintains the set of active clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("client connected", "child_id", c.childID)
}

// Unregister removes a client and closes its send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers msg to every client that wants it. Clients with a full
// buffer miss the message rather than block the sender.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "type", msg.Type)
		}
	}
}

// Publish is shorthand for Broadcast(NewMessage(...)).
func (h *Hub) Publish(entity, action, childID, id string, extra map[string]any) {
	h.Broadcast(NewMessage(entity, action, childID, id, extra))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
