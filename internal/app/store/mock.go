package store

import (
	"context"

	"dmchat/internal/app/user"
)

// MockStore is a function-field test double for ConversationStore.
// Unset fields behave as if the row does not exist.
type MockStore struct {
	GetUserFunc         func(ctx context.Context, id int64) (user.User, error)
	GetConversationFunc func(ctx context.Context, id int64) (Conversation, error)
	IsParticipantFunc   func(ctx context.Context, conversationID, userID int64) (bool, error)
	CreateMessageFunc   func(ctx context.Context, conversationID, senderID int64, content string) (Message, error)
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (user.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return user.User{}, ErrNotFound
}

func (m *MockStore) GetConversation(ctx context.Context, id int64) (Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, id)
	}
	return Conversation{}, ErrNotFound
}

func (m *MockStore) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	if m.IsParticipantFunc != nil {
		return m.IsParticipantFunc(ctx, conversationID, userID)
	}
	return false, nil
}

func (m *MockStore) CreateMessage(ctx context.Context, conversationID, senderID int64, content string) (Message, error) {
	if m.CreateMessageFunc != nil {
		return m.CreateMessageFunc(ctx, conversationID, senderID, content)
	}
	return Message{}, ErrNotFound
}
