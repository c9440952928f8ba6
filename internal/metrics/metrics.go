// Package metrics defines the Prometheus collectors for the sync server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubActiveSessions tracks the number of sessions with at least one live connection
	HubActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_sessions",
			Help: "Number of sessions with at least one live connection",
		},
	)

	// HubConnectedClients tracks the total number of connected WebSocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Total number of connected WebSocket clients across all sessions",
		},
	)

	// HubSlowClientsEvicted counts clients dropped because their send buffer filled
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Clients evicted because their outbound buffer stayed full",
		},
	)

	// BroadcastsTotal counts fan-out passes by message type
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Broadcast passes by message type",
		},
		[]string{"type"},
	)
)

// Protocol metrics
var (
	// MessagesReceivedTotal counts inbound frames by decoded type
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_messages_received_total",
			Help: "Inbound WebSocket messages by type",
		},
		[]string{"type"},
	)

	// ConnectionsRejectedTotal counts refused WebSocket upgrades by reason
	ConnectionsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_connections_rejected_total",
			Help: "Rejected WebSocket connections by reason",
		},
		[]string{"reason"},
	)

	// MessageSendDuration tracks individual WebSocket write latency
	MessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ws_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)
)

// Persistence metrics
var (
	// WritesPersistedTotal counts durable document writes that actually ran
	WritesPersistedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_writes_persisted_total",
			Help: "Durable document writes performed",
		},
	)

	// WritesCoalescedTotal counts document writes skipped by the coalescing interval
	WritesCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_writes_coalesced_total",
			Help: "Durable document writes skipped by the coalescing interval",
		},
	)

	// WriteFailuresTotal counts durable writes rejected by the backing store
	WriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_write_failures_total",
			Help: "Durable writes that failed; broadcasts are unaffected",
		},
	)

	// SessionsCleanedUpTotal counts expired sessions pruned by the cleanup ticker
	SessionsCleanedUpTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_cleaned_up_total",
			Help: "Expired sessions removed by the periodic cleanup",
		},
	)
)
