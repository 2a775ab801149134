// Package hub connects websocket clients to the room engine: it resolves who
// is connecting, turns inbound frames into engine calls and fans engine
// events out to the connections bound to each room.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/spexcher/Pictionary/game"
)

// Hub tracks live connections and which room each one is bound to. It is the
// engine's game.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*client
	rooms map[string]map[*client]struct{}
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]*client),
		rooms: make(map[string]map[*client]struct{}),
		log:   log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

// unregister forgets c and reports the room it was bound to and whether it
// was the player's last connection there.
func (h *Hub) unregister(c *client) (roomID string, last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c.id)
	roomID = c.roomID
	if roomID == "" {
		return "", false
	}
	h.unbind(c)

	for other := range h.rooms[roomID] {
		if other.identity.ID == c.identity.ID {
			return roomID, false
		}
	}
	return roomID, true
}

func (h *Hub) unbind(c *client) {
	members := h.rooms[c.roomID]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, c.roomID)
	}
	c.roomID = ""
}

// roomOf is the room the connection is currently bound to.
func (h *Hub) roomOf(c *client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.roomID
}

// Join binds connection connID to roomID. A connection belongs to at most one
// room, so any previous binding is dropped.
func (h *Hub) Join(roomID, playerID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok || c.identity.ID != playerID {
		return
	}
	if c.roomID == roomID {
		return
	}
	if c.roomID != "" {
		h.unbind(c)
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[roomID] = members
	}
	members[c] = struct{}{}
	c.roomID = roomID
}

// Leave unbinds every connection of the player from the room.
func (h *Hub) Leave(roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[roomID] {
		if c.identity.ID == playerID {
			h.unbind(c)
		}
	}
}

func (h *Hub) ToRoom(roomID string, e game.Event) {
	h.fanOut(roomID, e, func(*client) bool { return true })
}

func (h *Hub) ToRoomExcept(roomID, exceptPlayerID string, e game.Event) {
	h.fanOut(roomID, e, func(c *client) bool { return c.identity.ID != exceptPlayerID })
}

func (h *Hub) ToPlayer(roomID, playerID string, e game.Event) {
	h.fanOut(roomID, e, func(c *client) bool { return c.identity.ID == playerID })
}

func (h *Hub) fanOut(roomID string, e game.Event, include func(*client) bool) {
	b, err := json.Marshal(e)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Str("event", e.Type).Msg("could not encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if include(c) {
			c.send(b)
		}
	}
}

// Connections is the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
