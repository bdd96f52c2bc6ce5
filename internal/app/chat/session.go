/*
Package chat contains the realtime messaging core.

This file defines the Session, one live authenticated websocket connection
bound to a single conversation room. A Session owns its read and write loops
and guarantees registry deregistration plus an offline presence broadcast on
every exit path, graceful or abrupt.
*/
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dmchat/internal/app/user"
	"dmchat/internal/pkg/logx"
)

const (
	// timeout for writing a frame to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong before dropping the connection.
	pongWait = 60 * time.Second

	// frequency at which the server sends Ping frames.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size in bytes of an inbound frame.
	maxFrameSize = 8192

	// capacity of the per-session outbound queue.
	sendQueueSize = 256
)

// Session is one live connection's authenticated, joined state.
type Session struct {
	// id is an opaque identifier unique to this connection. A user with
	// several devices holds several independent sessions.
	id string

	// user is the identity resolved at connect time, immutable afterwards.
	user user.User

	// conversationID and roomID bind the session to exactly one room.
	conversationID int64
	roomID         string

	conn     *websocket.Conn
	registry *Registry
	router   *Router
	presence *PresenceTracker

	// send queues outbound frames for the write loop. It is never closed;
	// the write loop exits through done instead, which removes any chance
	// of an enqueue racing a close.
	send chan []byte
	done chan struct{}

	cleanupOnce sync.Once

	logger zerolog.Logger
}

// NewSession constructs a Session for an accepted, authenticated connection.
func NewSession(registry *Registry, router *Router, presence *PresenceTracker, conn *websocket.Conn, identity user.User, conversationID int64) *Session {
	sessionID := uuid.NewString()
	roomID := RoomID(conversationID)

	sessionLogger := logx.Logger().With().
		Str("session_id", sessionID).
		Str("room_id", roomID).
		Int64("user_id", identity.ID).
		Logger()

	return &Session{
		id:             sessionID,
		user:           identity,
		conversationID: conversationID,
		roomID:         roomID,
		conn:           conn,
		registry:       registry,
		router:         router,
		presence:       presence,
		send:           make(chan []byte, sendQueueSize),
		done:           make(chan struct{}),
		logger:         sessionLogger,
	}
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// User returns the identity bound to this session.
func (s *Session) User() user.User { return s.user }

// Run joins the session to its room, announces presence, and services the
// connection until it closes. It blocks until the read loop exits.
func (s *Session) Run(ctx context.Context) {
	s.registry.Join(s.roomID, s.id, s)
	s.presence.Online(s.roomID, s.id, s.user)

	go s.writePump()
	s.readPump(ctx)
}

// readPump reads inbound frames and dispatches them to the router. On any
// read failure the deferred cleanup runs, covering abrupt disconnects.
func (s *Session) readPump(ctx context.Context) {
	defer s.cleanup()

	s.conn.SetReadLimit(maxFrameSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info().Err(err).Msg("Connection read ended")
			}
			return
		}

		s.router.Handle(ctx, s, frame)
	}
}

// cleanup runs exactly once per session: offline presence to the remaining
// members, then deregistration, then transport teardown.
func (s *Session) cleanup() {
	s.cleanupOnce.Do(func() {
		s.logger.Info().Msg("Session cleanup starting.")

		s.presence.Offline(s.roomID, s.id, s.user)
		s.registry.Leave(s.roomID, s.id)

		close(s.done)

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Connection close error during cleanup")
		}
	})
}

// writePump drains the send queue onto the connection and keeps the
// heartbeat alive. It exits when done is closed or a write fails; a failed
// write surfaces as a read error, which triggers cleanup.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Info().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Info().Err(err).Msg("Error writing ping")
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				s.logger.Debug().Err(err).Msg("Error writing close frame")
			}
			return
		}
	}
}

// Enqueue implements SendHandle. It never blocks: a full queue means this
// peer is too slow and the frame is dropped for it alone.
func (s *Session) Enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Shutdown implements SendHandle. It sends a going-away close frame and
// tears the connection down, which unblocks the read loop and runs cleanup.
func (s *Session) Shutdown() {
	closeMessage := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")

	if err := s.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write shutdown close frame")
	}

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Connection close error during shutdown")
	}
}
