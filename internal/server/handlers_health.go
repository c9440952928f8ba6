package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prasanna018/code-collab-backend/internal/version"
)

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"status":  "ok",
		"message": "CodeCollab API is running",
		"version": version.Get().Version,
	})
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", s.checkPostgres},
		{"redis", s.checkRedis},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) checkRedis(ctx context.Context) error {
	if s.redisHealth == nil {
		return nil
	}
	return s.redisHealth.Ping(ctx).Err()
}

func (s *Server) checkPostgres(ctx context.Context) error {
	if s.postgresHealth == nil {
		return nil
	}
	return s.postgresHealth.Ping(ctx)
}
