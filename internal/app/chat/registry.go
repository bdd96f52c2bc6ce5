/*
Package chat contains the realtime messaging core.

This file defines the Registry, the only shared mutable structure the core
owns: a mapping from room ids to the sessions currently joined, supporting
concurrent join, leave, and fan-out broadcast.
*/
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"dmchat/internal/pkg/logx"
)

// SendHandle is the delivery endpoint the Registry holds for one joined
// session. Enqueue must never block; it reports false when the frame was
// dropped. Shutdown asks the owning session to close its transport, used
// only during server shutdown.
type SendHandle interface {
	Enqueue(frame []byte) bool
	Shutdown()
}

// room is one broadcast group and its membership.
type room struct {
	id string

	// mu protects members. Mutation happens under the registry's write
	// lock; broadcasts only ever take the read side.
	mu      sync.RWMutex
	members map[string]SendHandle

	// sendMu serializes fan-out so every member observes broadcasts to this
	// room in the same order. Enqueues never block, so holding it is cheap.
	sendMu sync.Mutex
}

// Registry maps room ids to their currently-joined sessions. It is
// constructed once at server start and injected into every connection
// handler; all methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	logger zerolog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		logger: logx.Logger().With().Str("component", "registry").Logger(),
	}
}

// Join adds a session to a room, creating the room entry on first join.
// Re-joining with the same session id replaces the previous handle, so no
// duplicate delivery path can exist.
func (reg *Registry) Join(roomID, sessionID string, handle SendHandle) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[roomID]
	if !ok {
		rm = &room{
			id:      roomID,
			members: make(map[string]SendHandle),
		}
		reg.rooms[roomID] = rm
	}

	rm.mu.Lock()
	rm.members[sessionID] = handle
	total := len(rm.members)
	rm.mu.Unlock()

	reg.logger.Info().
		Str("room_id", roomID).
		Str("session_id", sessionID).
		Int("total_members", total).
		Msg("Session joined room.")
}

// Leave removes a session from a room. Leaving a room the session is not a
// member of is a no-op. The room entry is deleted when its membership set
// becomes empty, so churn cannot leak empty entries.
func (reg *Registry) Leave(roomID, sessionID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[roomID]
	if !ok {
		return
	}

	rm.mu.Lock()
	_, member := rm.members[sessionID]
	if member {
		delete(rm.members, sessionID)
	}
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if !member {
		return
	}

	if empty {
		delete(reg.rooms, roomID)
	}

	reg.logger.Info().
		Str("room_id", roomID).
		Str("session_id", sessionID).
		Bool("room_removed", empty).
		Msg("Session left room.")
}

// Broadcast delivers payload to every session currently joined to the room.
func (reg *Registry) Broadcast(roomID string, payload any) {
	reg.broadcast(roomID, "", payload)
}

// BroadcastExcept delivers payload to every joined session except the one
// named, used for events a session should not observe about itself.
func (reg *Registry) BroadcastExcept(roomID, exceptSessionID string, payload any) {
	reg.broadcast(roomID, exceptSessionID, payload)
}

func (reg *Registry) broadcast(roomID, exceptSessionID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		reg.logger.Error().Err(err).Str("room_id", roomID).Msg("Failed to marshal broadcast payload.")
		return
	}

	reg.mu.RLock()
	rm := reg.rooms[roomID]
	reg.mu.RUnlock()

	if rm == nil {
		return
	}

	rm.sendMu.Lock()
	defer rm.sendMu.Unlock()

	rm.mu.RLock()
	type target struct {
		sessionID string
		handle    SendHandle
	}
	targets := make([]target, 0, len(rm.members))
	for sessionID, handle := range rm.members {
		if sessionID == exceptSessionID {
			continue
		}
		targets = append(targets, target{sessionID: sessionID, handle: handle})
	}
	rm.mu.RUnlock()

	for _, t := range targets {
		if !t.handle.Enqueue(data) {
			reg.logger.Warn().
				Str("room_id", roomID).
				Str("session_id", t.sessionID).
				Msg("Member send queue full, dropping frame.")
		}
	}
}

// MemberCount returns the number of sessions currently joined to the room.
func (reg *Registry) MemberCount(roomID string) int {
	reg.mu.RLock()
	rm := reg.rooms[roomID]
	reg.mu.RUnlock()

	if rm == nil {
		return 0
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}

// RoomCount returns the number of rooms with at least one joined session.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Close asks every joined session to shut down its transport. Sessions
// deregister themselves as their connections close.
func (reg *Registry) Close() {
	reg.mu.RLock()
	handles := make([]SendHandle, 0)
	for _, rm := range reg.rooms {
		rm.mu.RLock()
		for _, handle := range rm.members {
			handles = append(handles, handle)
		}
		rm.mu.RUnlock()
	}
	reg.mu.RUnlock()

	reg.logger.Info().Int("sessions", len(handles)).Msg("Closing all live sessions.")

	for _, handle := range handles {
		handle.Shutdown()
	}
}
