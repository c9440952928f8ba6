package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Prasanna018/code-collab-backend/internal/app"
	"github.com/Prasanna018/code-collab-backend/internal/config"
	"github.com/Prasanna018/code-collab-backend/internal/database"
	"github.com/Prasanna018/code-collab-backend/internal/domain"
	"github.com/Prasanna018/code-collab-backend/internal/hub"
	"github.com/Prasanna018/code-collab-backend/internal/logging"
	"github.com/Prasanna018/code-collab-backend/internal/redis"
	"github.com/Prasanna018/code-collab-backend/internal/server"
)

func setupConfig() *config.Config {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub, cancelCleanup context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelCleanup()
		h.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	store := database.NewSessionRepo(pool)
	presence := redis.NewPresenceStore(redisClient)

	coalescer := app.NewWriteCoalescer(store, clock, cfg.WriteInterval)
	appSvc := app.NewService(store, presence, coalescer, clock)

	// The hub announces an eviction the same way a graceful leave is
	// announced, so surviving members see a consistent participant count.
	var h *hub.Hub
	onSessionEmpty := func(sessionID string) {
		appSvc.SessionEmptied(context.Background(), sessionID)
	}
	onEvict := func(sessionID, participantID string, remaining int) {
		appSvc.ParticipantLeft(context.Background(), sessionID, participantID)
		payload, err := json.Marshal(domain.PresenceMessage{
			Type:          domain.MessageUserLeave,
			ParticipantID: participantID,
			ActiveUsers:   remaining,
		})
		if err != nil {
			return
		}
		h.Broadcast(sessionID, payload, nil)
	}
	h = hub.New(clock, cfg.MaxClientsPerSession, onSessionEmpty, onEvict)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	cleaner := app.NewCleanupTicker(store, clock, cfg.CleanupInterval, cfg.SessionExpiry)
	go cleaner.Run(cleanupCtx)

	srv := server.New(cfg, appSvc, h, pool, redisClient)

	done := runGracefulShutdown(srv, h, cancelCleanup)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
