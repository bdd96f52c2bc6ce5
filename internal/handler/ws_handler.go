/*
Package handler provides the HTTP surface of the realtime core.

This file contains the websocket upgrade handler: rate limiting, conversation
path parsing, the connection handshake (token from the query string, since
not every client environment forwards custom headers during upgrade),
participancy verification, and session startup. Failures before the upgrade
are plain HTTP errors; failures after it are reported with the close codes
the clients distinguish on (4000 expired, 4001 invalid/unauthorized).
*/
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"dmchat/internal/app/chat"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/limiter"
	"dmchat/internal/pkg/logx"
)

const closeWriteWait = 5 * time.Second

// HandleWebSocket returns the HandlerFunc that serves GET /ws/{conversationID}.
func HandleWebSocket(upgrader websocket.Upgrader, connectLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !connectLimiter.GetLimiter(ip).Allow() {
			logx.Warn("Websocket connection rejected: rate limit exceeded.", "ip", ip)
			rateErr := errs.NewError(errs.ErrRateLimitExceeded)
			http.Error(w, rateErr.Message, rateErr.Status)
			return
		}

		conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
		if err != nil {
			logx.Warn("Websocket request rejected: bad conversation id", "raw", chi.URLParam(r, "conversationID"))
			paramErr := errs.NewError(errs.ErrInvalidParams)
			http.Error(w, paramErr.Message, paramErr.Status)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to websocket")
			return
		}

		// Authentication happens after the upgrade so rejections can carry
		// the close codes clients distinguish on.
		token := r.URL.Query().Get("token")

		identity, authErr := deps.Authenticator.Authenticate(r.Context(), token)
		if authErr != nil {
			closeWithCode(conn, closeCodeFor(authErr), authErr.Message)
			return
		}

		isParticipant, err := deps.Store.IsParticipant(r.Context(), conversationID, identity.ID)
		if err != nil {
			logx.Error(err, "Participant check failed", "conversation_id", conversationID, "user_id", identity.ID)
			closeWithCode(conn, websocket.CloseInternalServerErr, "internal error")
			return
		}
		if !isParticipant {
			logx.Warn("Websocket connection rejected: not a participant",
				"conversation_id", conversationID, "user_id", identity.ID)
			closeWithCode(conn, chat.CloseCodeInvalidCredential, errs.NewError(errs.ErrNotParticipant).Message)
			return
		}

		session := chat.NewSession(deps.Registry, deps.Router, deps.Presence, conn, identity, conversationID)

		logx.Info("Websocket connection established",
			"session_id", session.ID(), "conversation_id", conversationID, "user_id", identity.ID)

		session.Run(r.Context())
	}
}

// closeCodeFor maps an authentication failure onto its websocket close code.
func closeCodeFor(authErr *errs.CustomError) int {
	if authErr.Code == errs.ErrCredentialExpired {
		return chat.CloseCodeExpiredCredential
	}
	return chat.CloseCodeInvalidCredential
}

// closeWithCode sends a close frame with the given code and tears the
// connection down without any join side effects.
func closeWithCode(conn *websocket.Conn, code int, reason string) {
	closeMessage := websocket.FormatCloseMessage(code, reason)

	if err := conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(closeWriteWait)); err != nil {
		logx.Warn("Failed to write close frame", "close_code", code, "error", err.Error())
	}

	if err := conn.Close(); err != nil {
		logx.Warn("Failed to close rejected connection", "error", err.Error())
	}
}
