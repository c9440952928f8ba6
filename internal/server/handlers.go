package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
	apperrors "github.com/Prasanna018/code-collab-backend/internal/errors"
)

type createSessionRequest struct {
	Language    string `json:"language"`
	InitialCode string `json:"initialCode"`
}

type sessionResponse struct {
	SessionID  string    `json:"sessionId"`
	Language   string    `json:"language"`
	Code       string    `json:"code"`
	CreatedAt  time.Time `json:"createdAt"`
	InviteLink string    `json:"inviteLink"`
}

func (s *Server) sessionToResponse(session domain.Session) sessionResponse {
	return sessionResponse{
		SessionID:  session.ID,
		Language:   session.Language,
		Code:       session.Code,
		CreatedAt:  session.CreatedAt,
		InviteLink: fmt.Sprintf("%s/session/%s", s.config.FrontendURL, session.ID),
	}
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	session, err := s.app.CreateSession(c.Request().Context(), req.Language, req.InitialCode)
	if err != nil {
		return apperrors.InternalError("failed to create session", err)
	}

	return c.JSON(http.StatusCreated, s.sessionToResponse(session))
}

func (s *Server) handleGetSession(c echo.Context) error {
	id := c.Param("id")

	session, err := s.app.GetSession(c.Request().Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return apperrors.NotFoundError("session not found").WithContext("session_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to load session", err)
	}

	return c.JSON(http.StatusOK, s.sessionToResponse(session))
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	id := c.Param("id")

	err := s.app.DeleteSession(c.Request().Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return apperrors.NotFoundError("session not found").WithContext("session_id", id)
	}
	if err != nil {
		return apperrors.InternalError("failed to delete session", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "session deleted"})
}

func (s *Server) handleActiveUsers(c echo.Context) error {
	id := c.Param("id")

	// The durable record must exist even when nobody is connected.
	if _, err := s.app.GetSession(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return apperrors.NotFoundError("session not found").WithContext("session_id", id)
		}
		return apperrors.InternalError("failed to load session", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"sessionId":   id,
		"activeUsers": s.hub.ActiveCount(id),
	})
}
