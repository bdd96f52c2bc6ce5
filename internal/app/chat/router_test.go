package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmchat/internal/app/store"
	"dmchat/internal/app/user"
)

var (
	alice = user.User{ID: 1, Username: "alice"}
	bob   = user.User{ID: 2, Username: "bob"}
)

// newTestSession builds a session without a live connection; router handlers
// only touch identity, room binding, and the logger.
func newTestSession(identity user.User, conversationID int64) *Session {
	return &Session{
		id:             "sess-" + identity.Username,
		user:           identity,
		conversationID: conversationID,
		roomID:         RoomID(conversationID),
		logger:         zerolog.Nop(),
	}
}

func existingConversation(participants ...int64) func(ctx context.Context, id int64) (store.Conversation, error) {
	return func(ctx context.Context, id int64) (store.Conversation, error) {
		return store.Conversation{ID: id, ParticipantIDs: participants}, nil
	}
}

func TestHandleChatMessagePersistsThenBroadcasts(t *testing.T) {
	persistedAt := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	var gotConversationID, gotSenderID int64
	var gotContent string

	st := &store.MockStore{
		GetConversationFunc: existingConversation(1, 2),
		CreateMessageFunc: func(ctx context.Context, conversationID, senderID int64, content string) (store.Message, error) {
			gotConversationID = conversationID
			gotSenderID = senderID
			gotContent = content
			return store.Message{
				ID:             10,
				ConversationID: conversationID,
				SenderID:       senderID,
				Content:        content,
				Timestamp:      persistedAt,
			}, nil
		},
	}

	reg := NewRegistry()
	rt := NewRouter(st, reg)
	s := newTestSession(alice, 42)

	// the sender's own handle joins too: chat messages echo to the full room
	sender := &fakeHandle{}
	peer := &fakeHandle{}
	reg.Join(s.roomID, s.id, sender)
	reg.Join(s.roomID, "sess-bob", peer)

	rt.Handle(context.Background(), s, []byte(`{"type":"chat_message","message":"hi","user":1}`))

	assert.Equal(t, int64(42), gotConversationID)
	assert.Equal(t, int64(1), gotSenderID)
	assert.Equal(t, "hi", gotContent)

	for _, h := range []*fakeHandle{sender, peer} {
		frames := h.received()
		require.Len(t, frames, 1)

		var frame ChatMessageFrame
		require.NoError(t, json.Unmarshal(frames[0], &frame))
		assert.Equal(t, FrameChatMessage, frame.Type)
		assert.Equal(t, "hi", frame.Message)
		assert.Equal(t, alice, frame.User)
		assert.Equal(t, persistedAt.Format(time.RFC3339), frame.Timestamp,
			"broadcast timestamp must be the persisted one")
	}
}

func TestHandleChatMessageWithoutUserFieldUsesSessionIdentity(t *testing.T) {
	var gotSenderID int64

	st := &store.MockStore{
		GetConversationFunc: existingConversation(1, 2),
		CreateMessageFunc: func(ctx context.Context, conversationID, senderID int64, content string) (store.Message, error) {
			gotSenderID = senderID
			return store.Message{ID: 11, Content: content, Timestamp: time.Now()}, nil
		},
	}

	reg := NewRegistry()
	rt := NewRouter(st, reg)
	s := newTestSession(bob, 42)

	rt.Handle(context.Background(), s, []byte(`{"type":"chat_message","message":"hello"}`))

	assert.Equal(t, bob.ID, gotSenderID)
}

func TestHandleChatMessageSpoofedSenderDropped(t *testing.T) {
	persisted := false
	st := &store.MockStore{
		GetConversationFunc: existingConversation(1, 2),
		CreateMessageFunc: func(ctx context.Context, conversationID, senderID int64, content string) (store.Message, error) {
			persisted = true
			return store.Message{}, nil
		},
	}

	reg := NewRegistry()
	rt := NewRouter(st, reg)
	s := newTestSession(alice, 42)

	peer := &fakeHandle{}
	reg.Join(s.roomID, "sess-bob", peer)

	rt.Handle(context.Background(), s, []byte(`{"type":"chat_message","message":"hi","user":99}`))

	assert.False(t, persisted, "a frame naming another sender must not be persisted")
	assert.Empty(t, peer.received())
}

func TestHandleChatMessageMissingConversation(t *testing.T) {
	persisted := false
	st := &store.MockStore{
		// default GetConversation returns store.ErrNotFound
		CreateMessageFunc: func(ctx context.Context, conversationID, senderID int64, content string) (store.Message, error) {
			persisted = true
			return store.Message{}, nil
		},
	}

	reg := NewRegistry()
	rt := NewRouter(st, reg)
	s := newTestSession(alice, 404)

	peer := &fakeHandle{}
	reg.Join(s.roomID, "sess-bob", peer)

	rt.Handle(context.Background(), s, []byte(`{"type":"chat_message","message":"hi","user":1}`))

	assert.False(t, persisted)
	assert.Empty(t, peer.received(), "missing conversation must be a silent drop")
}

func TestHandleChatMessagePersistenceFailureSkipsBroadcast(t *testing.T) {
	st := &store.MockStore{
		GetConversationFunc: existingConversation(1, 2),
		CreateMessageFunc: func(ctx context.Context, conversationID, senderID int64, content string) (store.Message, error) {
			return store.Message{}, context.DeadlineExceeded
		},
	}

	reg := NewRegistry()
	rt := NewRouter(st, reg)
	s := newTestSession(alice, 42)

	peer := &fakeHandle{}
	reg.Join(s.roomID, "sess-bob", peer)

	rt.Handle(context.Background(), s, []byte(`{"type":"chat_message","message":"hi","user":1}`))

	assert.Empty(t, peer.received(), "no persisted row means nothing to broadcast")
}

func TestHandleChatMessageOversizeContentDropped(t *testing.T) {
	persisted := false
	st := &store.MockStore{
		GetConversationFunc: existingConversation(1, 2),
		CreateMessageFunc: func(ctx context.Context, conversationID, senderID int64, content string) (store.Message, error) {
			persisted = true
			return store.Message{}, nil
		},
	}

	reg := NewRegistry()
	rt := NewRouter(st, reg)
	s := newTestSession(alice, 42)

	oversize := make([]byte, MaxContentBytes+1)
	for i := range oversize {
		oversize[i] = 'x'
	}
	frame, err := json.Marshal(map[string]any{"type": "chat_message", "message": string(oversize), "user": 1})
	require.NoError(t, err)

	rt.Handle(context.Background(), s, frame)

	assert.False(t, persisted)
}

func TestHandleTyping(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter(&store.MockStore{}, reg)
	s := newTestSession(bob, 42)

	sender := &fakeHandle{}
	peer := &fakeHandle{}
	reg.Join(s.roomID, s.id, sender)
	reg.Join(s.roomID, "sess-alice", peer)

	t.Run("broadcasts to the other members", func(t *testing.T) {
		rt.Handle(context.Background(), s, []byte(`{"type":"typing","receiver":1}`))

		frames := peer.received()
		require.Len(t, frames, 1)

		var frame TypingFrame
		require.NoError(t, json.Unmarshal(frames[0], &frame))
		assert.Equal(t, FrameTyping, frame.Type)
		assert.Equal(t, bob, frame.User)
		assert.Equal(t, int64(1), frame.Receiver)

		assert.Empty(t, sender.received(), "typing must not echo to the sending session")
	})

	t.Run("self-directed typing is suppressed", func(t *testing.T) {
		rt.Handle(context.Background(), s, []byte(`{"type":"typing","receiver":2}`))
		assert.Len(t, peer.received(), 1, "no additional frame expected")
	})

	t.Run("numeric string receiver is accepted", func(t *testing.T) {
		rt.Handle(context.Background(), s, []byte(`{"type":"typing","receiver":"1"}`))
		assert.Len(t, peer.received(), 2)
	})

	t.Run("malformed receiver is dropped", func(t *testing.T) {
		rt.Handle(context.Background(), s, []byte(`{"type":"typing","receiver":"soon"}`))
		rt.Handle(context.Background(), s, []byte(`{"type":"typing"}`))
		rt.Handle(context.Background(), s, []byte(`{"type":"typing","receiver":null}`))
		assert.Len(t, peer.received(), 2, "no additional frames expected")
	})
}

func TestHandleUnrecognizedAndMalformedFrames(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter(&store.MockStore{}, reg)
	s := newTestSession(alice, 42)

	peer := &fakeHandle{}
	reg.Join(s.roomID, "sess-bob", peer)

	// none of these may panic, broadcast, or close anything
	rt.Handle(context.Background(), s, []byte(`{"type":"presence_probe"}`))
	rt.Handle(context.Background(), s, []byte(`not json at all`))
	rt.Handle(context.Background(), s, []byte(`{"type":"chat_message","message":123,"user":"x"}`))

	assert.Empty(t, peer.received())
}
