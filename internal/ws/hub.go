package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"marketplace-chat/internal/observability"
)

// Hub maintains room membership for active websocket sessions. Membership is
// in-memory only and rebuilt on every connection.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Session]bool)}
}

// Join adds a session to a room.
func (h *Hub) Join(room string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Session]bool)
	}
	h.rooms[room][s] = true
}

// Leave removes a session from a room.
func (h *Hub) Leave(room string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, s)
}

// LeaveAll removes a session from every room it joined.
func (h *Hub) LeaveAll(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.rooms {
		h.removeLocked(room, s)
	}
}

func (h *Hub) removeLocked(room string, s *Session) {
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Members snapshots the sessions currently joined to a room.
func (h *Hub) Members(room string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]*Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		members = append(members, s)
	}
	return members
}

// Broadcast delivers an event to every session joined to a room. Delivery is
// at-most-once per connection: a failed write closes and deregisters only the
// failing session, never the others.
func (h *Hub) Broadcast(room string, event string, data interface{}) {
	h.broadcast(room, event, data, nil)
}

// BroadcastExcept is Broadcast minus one session, used for typing indicators
// so the typist doesn't see their own.
func (h *Hub) BroadcastExcept(room string, event string, data interface{}, skip *Session) {
	h.broadcast(room, event, data, skip)
}

func (h *Hub) broadcast(room string, event string, data interface{}, skip *Session) {
	payload, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	for _, s := range h.Members(room) {
		if s == skip {
			continue
		}
		if err := s.sendRaw(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			_ = s.Close()
			h.LeaveAll(s)
			h.publishWSError(s, err)
		}
	}
}

func (h *Hub) publishWSError(s *Session, err error) {
	observability.IncWSEvent("ws_error")
	_ = observability.PublishEvent(context.Background(), observability.WSEventRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: observability.WSEventPayload{
			Event:      "ws_error",
			ConnID:     s.ID,
			UserID:     s.Identity.ID,
			IP:         s.IP,
			DurationMs: time.Since(s.ConnectedAt).Milliseconds(),
			Reason:     err.Error(),
		},
	}, observability.BuildHeaders(s.RequestID, s.TraceID))
}
