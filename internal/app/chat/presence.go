/*
Package chat contains the realtime messaging core.

This file defines the PresenceTracker, the policy layer that turns session
lifecycle transitions into online_status broadcasts. Presence is
per-session: a user connected from two devices emits a transition for each,
with no cross-device deduplication.
*/
package chat

import (
	"github.com/rs/zerolog"

	"dmchat/internal/app/user"
	"dmchat/internal/pkg/logx"
)

// PresenceTracker emits presence transitions through the room registry. It
// holds no state of its own; the session lifecycle is the source of truth.
type PresenceTracker struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewPresenceTracker builds a tracker over the given registry.
func NewPresenceTracker(registry *Registry) *PresenceTracker {
	return &PresenceTracker{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "presence").Logger(),
	}
}

// Online announces a session's arrival to the other room members. The
// arriving session itself is excluded; delivery is best-effort.
func (t *PresenceTracker) Online(roomID, sessionID string, identity user.User) {
	t.announce(roomID, sessionID, identity, StatusOnline)
}

// Offline announces a session's departure to the remaining room members.
func (t *PresenceTracker) Offline(roomID, sessionID string, identity user.User) {
	t.announce(roomID, sessionID, identity, StatusOffline)
}

func (t *PresenceTracker) announce(roomID, sessionID string, identity user.User, status PresenceStatus) {
	t.logger.Debug().
		Str("room_id", roomID).
		Int64("user_id", identity.ID).
		Str("status", string(status)).
		Msg("Broadcasting presence transition")

	t.registry.BroadcastExcept(roomID, sessionID, OnlineStatusFrame{
		Type:        FrameOnlineStatus,
		OnlineUsers: []user.User{identity},
		Status:      status,
	})
}
