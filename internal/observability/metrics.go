// Package observability holds Prometheus metric definitions shared across packages.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exon_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MessagesSent counts chat messages accepted for delivery.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exon_messages_sent_total",
		Help: "Total number of chat messages persisted",
	})

	// PublishFailures counts realtime publish failures after a message was persisted.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exon_publish_failures_total",
		Help: "Total number of pub/sub publish failures (message persisted, delivery skipped)",
	})

	// TokensAwarded counts tokens credited by award kind (daily, social, referral).
	TokensAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exon_tokens_awarded_total",
		Help: "Total tokens credited, labelled by award kind",
	}, []string{"kind"})

	// WebSocketConnections is the gauge of active chat websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exon_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exon_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
