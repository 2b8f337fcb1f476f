package realtime

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event is a single realtime message pushed to room members.
type Event struct {
	// Name is the event type clients switch on, e.g. "newLike".
	Name string `json:"event"`
	// Data carries the event payload, serialized as JSON on the wire.
	Data interface{} `json:"data"`
}

// Conn receives events for one connected client. Implementations must not
// block in Send; the hub drops events a connection cannot absorb.
type Conn interface {
	// ID uniquely identifies the connection within the hub.
	ID() string
	// Send delivers an event. It returns false when the connection cannot
	// accept it (buffer full or closed); the hub treats that as a drop.
	Send(ev Event) bool
	// Close releases the connection's resources. Idempotent.
	Close()
}

// EntryRoom returns the room name for one entry's live audience.
func EntryRoom(entryID uint) string {
	return fmt.Sprintf("entry:%d", entryID)
}

// UserRoom returns the per-user room used for private notifications.
func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// Broadcaster is the push surface controllers depend on. The concrete Hub
// implements it; tests substitute a recording double.
type Broadcaster interface {
	Broadcast(room string, ev Event)
}

// Hub tracks rooms and their member connections and fans events out to them.
// All methods are safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn // room -> conn id -> conn
	conns map[string]map[string]bool // conn id -> joined rooms
	byID  map[string]Conn            // registered connections

	logger *zap.SugaredLogger
}

// NewHub creates an empty hub. logger may be nil.
func NewHub(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		rooms:  make(map[string]map[string]Conn),
		conns:  make(map[string]map[string]bool),
		byID:   make(map[string]Conn),
		logger: logger,
	}
}

// Register makes conn addressable by ID for later Join/Leave calls.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byID[conn.ID()] = conn
}

// Get returns the registered connection with the given ID, or nil.
func (h *Hub) Get(connID string) Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.byID[connID]
}

// Join adds conn to room, creating the room when it does not exist yet.
// Joining a room twice is a no-op.
func (h *Hub) Join(room string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Conn)
		h.rooms[room] = members
	}
	members[conn.ID()] = conn

	joined, ok := h.conns[conn.ID()]
	if !ok {
		joined = make(map[string]bool)
		h.conns[conn.ID()] = joined
	}
	joined[room] = true

	h.logger.Debugw("realtime join", "room", room, "conn", conn.ID(), "members", len(members))
}

// Leave removes conn from room. Empty rooms are deleted so the room map does
// not grow without bound.
func (h *Hub) Leave(room string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, conn.ID())
}

func (h *Hub) leaveLocked(room, connID string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined, ok := h.conns[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(h.conns, connID)
		}
	}
}

// Disconnect removes conn from every room it joined and closes it.
func (h *Hub) Disconnect(conn Conn) {
	h.mu.Lock()
	rooms := []string{}
	for room := range h.conns[conn.ID()] {
		rooms = append(rooms, room)
	}
	for _, room := range rooms {
		h.leaveLocked(room, conn.ID())
	}
	delete(h.byID, conn.ID())
	h.mu.Unlock()

	conn.Close()
	h.logger.Debugw("realtime disconnect", "conn", conn.ID(), "rooms", len(rooms))
}

// Broadcast delivers ev to every current member of room. Delivery is
// best-effort: connections that cannot keep up have the event dropped rather
// than stalling the sender. Broadcasting to an absent room is a no-op.
func (h *Hub) Broadcast(room string, ev Event) {
	h.mu.RLock()
	members := make([]Conn, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.Send(ev) {
			h.logger.Debugw("realtime drop", "room", room, "conn", c.ID(), "event", ev.Name)
		}
	}
}

// RoomSize returns how many connections are currently in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
