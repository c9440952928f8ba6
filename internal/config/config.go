// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	LogFormat   string

	// FrontendURL is the origin allowed to call the API and the base for
	// invite links.
	FrontendURL string

	// WriteInterval is the minimum gap between durable document writes for
	// one session.
	WriteInterval time.Duration

	// SessionExpiry is how long a session lives before the cleanup ticker
	// prunes it.
	SessionExpiry   time.Duration
	CleanupInterval time.Duration

	MaxClientsPerSession int

	// Connection limits for the WebSocket endpoint.
	MaxConnections      int64
	MaxConnectionsPerIP int
	ConnectionRate      float64
	ConnectionBurst     int
}

func Load() (*Config, error) {
	writeIntervalMs, err := getEnvInt("WRITE_INTERVAL_MS", 500)
	if err != nil {
		return nil, err
	}
	expiryHours, err := getEnvInt("SESSION_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cleanupHours, err := getEnvInt("CLEANUP_INTERVAL_HOURS", 1)
	if err != nil {
		return nil, err
	}
	maxClients, err := getEnvInt("MAX_CLIENTS_PER_SESSION", 50)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("MAX_CONNECTIONS", 10000)
	if err != nil {
		return nil, err
	}
	maxConnsPerIP, err := getEnvInt("MAX_CONNECTIONS_PER_IP", 100)
	if err != nil {
		return nil, err
	}
	connRate, err := getEnvInt("CONNECTION_RATE_PER_SECOND", 10)
	if err != nil {
		return nil, err
	}
	connBurst, err := getEnvInt("CONNECTION_BURST", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		WriteInterval:        time.Duration(writeIntervalMs) * time.Millisecond,
		SessionExpiry:        time.Duration(expiryHours) * time.Hour,
		CleanupInterval:      time.Duration(cleanupHours) * time.Hour,
		MaxClientsPerSession: maxClients,
		MaxConnections:       int64(maxConns),
		MaxConnectionsPerIP:  maxConnsPerIP,
		ConnectionRate:       float64(connRate),
		ConnectionBurst:      connBurst,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.WriteInterval <= 0 {
		return nil, fmt.Errorf("WRITE_INTERVAL_MS must be positive")
	}
	if cfg.SessionExpiry <= 0 {
		return nil, fmt.Errorf("SESSION_EXPIRY_HOURS must be positive")
	}
	if cfg.MaxClientsPerSession <= 0 {
		return nil, fmt.Errorf("MAX_CLIENTS_PER_SESSION must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
