// Package server exposes the HTTP surface: session bootstrap REST endpoints,
// health and metrics, and the real-time WebSocket channel.
package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Prasanna018/code-collab-backend/internal/config"
	apperrors "github.com/Prasanna018/code-collab-backend/internal/errors"
	"github.com/Prasanna018/code-collab-backend/internal/domain"
	"github.com/Prasanna018/code-collab-backend/internal/hub"
)

// redisPinger is the minimal surface needed for Redis health checks.
type redisPinger interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// postgresPinger is the minimal surface needed for PostgreSQL health checks.
type postgresPinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       domain.AppService
	hub       *hub.Hub
	limits    *ConnectionLimits
	startTime time.Time

	redisHealth    redisPinger
	postgresHealth postgresPinger
}

func New(cfg *config.Config, app domain.AppService, h *hub.Hub, pool *pgxpool.Pool, rdb *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		// Compression must not wrap the hijacked WebSocket connection.
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/ws/")
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowCredentials: true,
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		hub:       h,
		limits:    NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP, cfg.ConnectionRate, cfg.ConnectionBurst),
		startTime: time.Now(),
	}
	if rdb != nil {
		srv.redisHealth = rdb
	}
	if pool != nil {
		srv.postgresHealth = pool
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
