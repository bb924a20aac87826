package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command name.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postshare_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ToggleTotal counts like toggles by target kind (post, comment) and outcome (liked, unliked).
	ToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_toggle_total",
		Help: "Like toggles by target kind and resulting state",
	}, []string{"kind", "result"})

	// FollowToggleTotal counts follow toggles by resulting state.
	FollowToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_follow_toggle_total",
		Help: "Follow toggles by resulting state",
	}, []string{"result"})

	// ImageReleaseFailures counts image releases that failed while a post was deleted anyway.
	ImageReleaseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postshare_image_release_failures_total",
		Help: "Image store release failures during post deletion",
	})

	// GraphRepairs counts users whose follower list was rewritten by reconciliation.
	GraphRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postshare_graph_repairs_total",
		Help: "Users repaired by follower reconciliation",
	})

	// WebSocketConnectionsTotal is the gauge of active relay connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postshare_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// RelayEventsTotal counts relay events by type and path (server, client, redis).
	RelayEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_relay_events_total",
		Help: "Relay events published by type and origin",
	}, []string{"event_type", "origin"})

	// WebSocketBackpressureDrops counts messages dropped by the relay, by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postshare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// LikeResultLabel maps a toggle outcome to its metric label.
func LikeResultLabel(isLiked bool) string {
	if isLiked {
		return "liked"
	}
	return "unliked"
}
