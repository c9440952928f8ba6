package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Session bootstrap API (not on the real-time path)
	s.echo.POST("/api/sessions", s.handleCreateSession)
	s.echo.GET("/api/sessions/:id", s.handleGetSession)
	s.echo.DELETE("/api/sessions/:id", s.handleDeleteSession)
	s.echo.GET("/api/sessions/:id/users", s.handleActiveUsers)

	// Real-time channel
	s.echo.GET("/ws/:id", s.handleWebSocket)
}
