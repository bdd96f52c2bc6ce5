/*
Package store is the persistence boundary of the realtime core.

Conversations, participants, and user accounts are owned by the external CRUD
API; the realtime core consumes them through the narrow ConversationStore
interface and only ever writes message rows. The interface is deliberately
small so tests can substitute a mock and so the core never grows implicit
coupling to the relational schema.
*/
package store

import (
	"context"
	"errors"
	"time"

	"dmchat/internal/app/user"
)

// ErrNotFound reports that a user, conversation, or message does not exist.
var ErrNotFound = errors.New("store: not found")

// Conversation is a two-party conversation as read from storage.
type Conversation struct {
	ID             int64
	ParticipantIDs []int64
	CreatedAt      time.Time
}

// Message is a persisted chat message. ID and Timestamp are assigned by the
// store at insertion time; timestamps are non-decreasing per conversation in
// insertion order.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Content        string
	Timestamp      time.Time
}

// ConversationStore is the read/write surface the realtime core needs from
// the relational store. Implementations must be safe for concurrent use from
// any number of connection goroutines.
type ConversationStore interface {
	// GetUser resolves a user id to its public identity view.
	GetUser(ctx context.Context, id int64) (user.User, error)

	// GetConversation loads a conversation and its participant ids.
	GetConversation(ctx context.Context, id int64) (Conversation, error)

	// IsParticipant reports whether userID belongs to the conversation.
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)

	// CreateMessage inserts a message row and returns it with the
	// store-assigned id and timestamp.
	CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (Message, error)
}
