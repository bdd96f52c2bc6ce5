/*
Package chat contains the realtime messaging core.

This file defines the Router, which decodes inbound frames and dispatches
them through an explicit table keyed by frame type. No failure here ever
reaches the transport layer: malformed or unauthorized frames are logged and
dropped while the connection stays open.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"dmchat/internal/app/store"
	"dmchat/internal/pkg/logx"
)

// MaxContentBytes is the maximum allowed size of chat message content.
const MaxContentBytes = 5000

// frameFunc handles one decoded inbound frame for a session.
type frameFunc func(ctx context.Context, s *Session, frame []byte)

// Router dispatches inbound frames to their handlers and coordinates the
// persist-then-broadcast ordering for chat messages.
type Router struct {
	store    store.ConversationStore
	registry *Registry
	handlers map[FrameType]frameFunc
	logger   zerolog.Logger
}

// NewRouter builds a Router over the given store and registry. The handler
// table is the closed set of recognized frame types; anything else falls
// through to the ignore branch in Handle.
func NewRouter(st store.ConversationStore, registry *Registry) *Router {
	rt := &Router{
		store:    st,
		registry: registry,
		logger:   logx.Logger().With().Str("component", "router").Logger(),
	}

	rt.handlers = map[FrameType]frameFunc{
		FrameChatMessage: rt.handleChatMessage,
		FrameTyping:      rt.handleTyping,
	}

	return rt
}

// Handle decodes the frame envelope and dispatches to the matching handler.
// Unrecognized types are ignored silently; malformed JSON is logged and
// dropped.
func (rt *Router) Handle(ctx context.Context, s *Session, frame []byte) {
	var env frameEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.logger.Warn().Err(err).Msg("Session sent invalid JSON")
		return
	}

	handler, ok := rt.handlers[env.Type]
	if !ok {
		s.logger.Debug().Str("frame_type", string(env.Type)).Msg("Ignoring unrecognized frame type")
		return
	}

	handler(ctx, s, frame)
}

// handleChatMessage persists an inbound text message and broadcasts it to
// the full room membership, the sender's own sessions included. Persistence
// completes before the broadcast so a client can never observe a message it
// could not subsequently retrieve; the broadcast timestamp is the persisted
// row's, not the receipt time.
func (rt *Router) handleChatMessage(ctx context.Context, s *Session, frame []byte) {
	var in chatMessageInbound
	if err := json.Unmarshal(frame, &in); err != nil {
		s.logger.Warn().Err(err).Msg("Session sent invalid chat_message payload")
		return
	}

	// The sender is the authenticated session identity. A frame naming
	// anyone else is dropped rather than trusted.
	if in.User != nil && *in.User != s.user.ID {
		s.logger.Warn().
			Int64("claimed_user_id", *in.User).
			Msg("Dropping chat_message with mismatched sender id")
		return
	}

	if len(in.Message) > MaxContentBytes {
		s.logger.Warn().Int("content_bytes", len(in.Message)).Msg("Dropping oversize chat_message")
		return
	}

	if _, err := rt.store.GetConversation(ctx, s.conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn().Msg("Dropping chat_message for missing conversation")
		} else {
			s.logger.Error().Err(err).Msg("Conversation lookup failed")
		}
		return
	}

	msg, err := rt.store.CreateMessage(ctx, s.conversationID, s.user.ID, in.Message)
	if err != nil {
		// Without a persisted row there is nothing to broadcast.
		s.logger.Error().Err(err).Msg("Failed to persist chat_message")
		return
	}

	rt.registry.Broadcast(s.roomID, ChatMessageFrame{
		Type:      FrameChatMessage,
		Message:   msg.Content,
		User:      s.user,
		Timestamp: msg.Timestamp.Format(time.RFC3339),
	})
}

// handleTyping broadcasts a typing indicator to the other room members.
// Self-directed and malformed receivers are suppressed.
func (rt *Router) handleTyping(ctx context.Context, s *Session, frame []byte) {
	var in typingInbound
	if err := json.Unmarshal(frame, &in); err != nil {
		s.logger.Warn().Err(err).Msg("Session sent invalid typing payload")
		return
	}

	receiverID, err := parseReceiverID(in.Receiver)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Dropping typing frame with unusable receiver")
		return
	}

	if receiverID == s.user.ID {
		s.logger.Debug().Msg("Suppressing self-directed typing indicator")
		return
	}

	rt.registry.BroadcastExcept(s.roomID, s.id, TypingFrame{
		Type:     FrameTyping,
		User:     s.user,
		Receiver: receiverID,
	})
}
