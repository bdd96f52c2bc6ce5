/*
Package chat contains the realtime messaging core: per-connection sessions,
the room registry that fans messages out to conversation members, the inbound
frame router, and the presence tracker.

This file defines the wire format: the closed enumeration of frame types and
the inbound/outbound payload structures exchanged over the websocket.
*/
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dmchat/internal/app/user"
)

// FrameType tags a websocket frame with its event kind.
type FrameType string

const (
	// FrameChatMessage carries a persisted text message.
	FrameChatMessage FrameType = "chat_message"

	// FrameTyping carries a typing indicator.
	FrameTyping FrameType = "typing"

	// FrameOnlineStatus carries an online/offline presence transition.
	FrameOnlineStatus FrameType = "online_status"
)

// PresenceStatus is the direction of a presence transition.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// Custom websocket close codes sent when a handshake is rejected.
const (
	// CloseCodeExpiredCredential tells the client its token expired and a
	// refreshed one may succeed.
	CloseCodeExpiredCredential = 4000

	// CloseCodeInvalidCredential covers a missing or malformed token and an
	// authenticated user who is not authorized for the conversation.
	CloseCodeInvalidCredential = 4001
)

// frameEnvelope is the minimal decode of any inbound frame, enough to pick a
// handler from the dispatch table.
type frameEnvelope struct {
	Type FrameType `json:"type"`
}

// chatMessageInbound is the client payload of a chat_message frame. User is
// optional; when present it must name the authenticated sender.
type chatMessageInbound struct {
	Message string `json:"message"`
	User    *int64 `json:"user"`
}

// typingInbound is the client payload of a typing frame. Receiver is kept
// raw because clients send it as either a number or a numeric string.
type typingInbound struct {
	Receiver json.RawMessage `json:"receiver"`
}

// ChatMessageFrame is the broadcast form of a persisted message. Timestamp
// is the store-assigned persistence time in RFC 3339.
type ChatMessageFrame struct {
	Type      FrameType `json:"type"`
	Message   string    `json:"message"`
	User      user.User `json:"user"`
	Timestamp string    `json:"timestamp"`
}

// TypingFrame is the broadcast form of a typing indicator.
type TypingFrame struct {
	Type     FrameType `json:"type"`
	User     user.User `json:"user"`
	Receiver int64     `json:"receiver"`
}

// OnlineStatusFrame announces a presence transition for the listed users.
type OnlineStatusFrame struct {
	Type        FrameType      `json:"type"`
	OnlineUsers []user.User    `json:"online_users"`
	Status      PresenceStatus `json:"status"`
}

// RoomID returns the broadcast group identifier for a conversation.
func RoomID(conversationID int64) string {
	return fmt.Sprintf("chat_%d", conversationID)
}

// parseReceiverID coerces a raw receiver field to a user id. It accepts a
// JSON number or a numeric string and rejects everything else.
func parseReceiverID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, errors.New("receiver is missing")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}

	switch value := v.(type) {
	case float64:
		return int64(value), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	default:
		return 0, fmt.Errorf("receiver has unsupported type %T", v)
	}
}
