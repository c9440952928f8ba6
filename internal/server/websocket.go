package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
	"github.com/Prasanna018/code-collab-backend/internal/logging"
	"github.com/Prasanna018/code-collab-backend/internal/metrics"
)

// closeSessionNotFound is sent when a channel is opened against a session
// identifier that has no durable record. The connection is never admitted.
const closeSessionNotFound = 4004

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect cross-origin from the editor frontend;
		// CORS on the REST surface does not apply to WebSocket upgrades.
		return true
	},
}

// handleWebSocket runs the lifecycle of one connection: admit (or close with
// a distinguishing code), announce the join, pump inbound messages, and on
// disconnect deregister exactly once.
func (s *Server) handleWebSocket(c echo.Context) error {
	sessionID := c.Param("id")
	ip := c.RealIP()

	if ok, reason := s.limits.Acquire(ip); !ok {
		metrics.ConnectionsRejectedTotal.WithLabelValues(string(reason)).Inc()
		return c.String(http.StatusTooManyRequests, "too many connections")
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return nil
	}

	ctx := c.Request().Context()
	logger := logging.WithSession(sessionID)

	// Pending: a connection is admitted only if the durable record exists.
	session, err := s.app.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		metrics.ConnectionsRejectedTotal.WithLabelValues("session_not_found").Inc()
		closeWithCode(conn, closeSessionNotFound, "session not found")
		return nil
	}
	if err != nil {
		logger.Error("Session lookup failed", "error", err)
		closeWithCode(conn, websocket.CloseInternalServerErr, "failed to load session")
		return nil
	}

	participantID, active, err := s.hub.Join(sessionID, conn)
	if err != nil {
		metrics.ConnectionsRejectedTotal.WithLabelValues("session_full").Inc()
		closeWithCode(conn, websocket.ClosePolicyViolation, "session full")
		return nil
	}
	logger = logger.With("participant_id", participantID)
	logger.Info("Participant joined", "active_users", active)

	s.app.ParticipantJoined(ctx, sessionID, participantID)

	// The init snapshot goes to the joining connection only; everything
	// after it is fan-out.
	s.send(sessionID, conn, domain.InitMessage{
		Type:          domain.MessageInit,
		SessionID:     sessionID,
		ParticipantID: participantID,
		Code:          session.Code,
		Language:      session.Language,
		ActiveUsers:   active,
	})
	s.broadcast(sessionID, domain.MessageUserJoin, domain.PresenceMessage{
		Type:          domain.MessageUserJoin,
		ParticipantID: participantID,
		ActiveUsers:   active,
	}, conn)

	// Active: the read loop is the only suspension point on the hot path.
	// Any transport error, including undecodable framing, surfaces here as
	// a disconnect.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleInbound(ctx, sessionID, participantID, conn, raw)
	}

	// Closed: Leave is idempotent, so the announcement happens exactly once
	// even if an eviction raced this disconnect.
	if pid, remaining, wasMember := s.hub.Leave(sessionID, conn); wasMember {
		s.app.ParticipantLeft(context.Background(), sessionID, pid)
		s.broadcast(sessionID, domain.MessageUserLeave, domain.PresenceMessage{
			Type:          domain.MessageUserLeave,
			ParticipantID: pid,
			ActiveUsers:   remaining,
		}, nil)
		logger.Info("Participant left", "active_users", remaining)
	}

	return nil
}

// handleInbound classifies one decoded frame. Malformed payloads and
// unrecognized types are forward-compatible no-ops.
func (s *Server) handleInbound(ctx context.Context, sessionID, participantID string, conn *websocket.Conn, raw []byte) {
	var msg domain.Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		metrics.MessagesReceivedTotal.WithLabelValues("malformed").Inc()
		slog.Debug("Ignoring malformed message", "session_id", sessionID, "error", err)
		return
	}

	switch msg.Type {
	case domain.MessageCodeChange:
		metrics.MessagesReceivedTotal.WithLabelValues(msg.Type).Inc()
		// Broadcast first: live propagation is never gated by the durable
		// write or its throttle.
		s.broadcast(sessionID, msg.Type, domain.CodeChangeMessage{
			Type:          domain.MessageCodeChange,
			ParticipantID: participantID,
			Code:          msg.Code,
		}, conn)
		s.app.SaveCode(ctx, sessionID, msg.Code)

	case domain.MessageLanguageChange:
		metrics.MessagesReceivedTotal.WithLabelValues(msg.Type).Inc()
		language := msg.Language
		if language == "" {
			language = domain.DefaultLanguage
		}
		// Language changes are rare and always persisted synchronously; a
		// store failure is logged but the broadcast still goes out.
		if err := s.app.SaveLanguage(ctx, sessionID, language); err != nil {
			logging.WithSession(sessionID).Error("Language write failed", "error", err)
		}
		s.broadcast(sessionID, msg.Type, domain.LanguageChangeMessage{
			Type:          domain.MessageLanguageChange,
			ParticipantID: participantID,
			Language:      language,
		}, conn)

	case domain.MessageCursorMove:
		metrics.MessagesReceivedTotal.WithLabelValues(msg.Type).Inc()
		s.broadcast(sessionID, msg.Type, domain.CursorMoveMessage{
			Type:           domain.MessageCursorMove,
			ParticipantID:  participantID,
			CursorPosition: msg.CursorPosition,
		}, conn)

	default:
		metrics.MessagesReceivedTotal.WithLabelValues("unknown").Inc()
		slog.Debug("Ignoring unrecognized message type", "session_id", sessionID, "type", msg.Type)
	}
}

// broadcast serializes once and fans out to every other member.
func (s *Server) broadcast(sessionID, messageType string, message any, exclude *websocket.Conn) {
	payload, err := json.Marshal(message)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "type", messageType, "error", err)
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(messageType).Inc()
	s.hub.Broadcast(sessionID, payload, exclude)
}

// send delivers a message to a single member through its writer.
func (s *Server) send(sessionID string, conn *websocket.Conn, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		slog.Error("Failed to marshal message", "error", err)
		return
	}
	s.hub.Send(sessionID, conn, payload)
}

// closeWithCode rejects a pending connection with a close frame and code.
func closeWithCode(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = conn.Close()
}
