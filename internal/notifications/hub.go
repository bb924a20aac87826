package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"postshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Event origins used as metric labels.
const (
	OriginServer = "server"
	OriginClient = "client"
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub maps userID to that user's live connections. Delivery is fire-and-forget: events
// for users with no connection are dropped and nothing is queued or replayed.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	notifier   *Notifier
	wsLog      *observability.WSLogger
	closed     bool
	// wired is set while the Redis pattern subscriber is running.
	wired atomic.Bool
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// NewHub creates a hub. With an enabled notifier, publishes fan out through Redis so every
// server instance delivers to its own connections.
func NewHub(notifier *Notifier) *Hub {
	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		notifier: notifier,
		wsLog:    observability.NewWSLogger("notification hub"),
	}
}

// Logger returns the hub's websocket logger.
func (h *Hub) Logger() *observability.WSLogger {
	return h.wsLog
}

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Broadcast sends message to all local connections for userID and returns how many
// accepted it.
func (h *Hub) Broadcast(userID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.conns[userID] {
		if c.TrySend(message) == nil {
			delivered++
		}
	}
	return delivered
}

// IsOnline reports whether userID has a connection on this instance.
func (h *Hub) IsOnline(userID uint) bool {
	return h.Connections(userID) > 0
}

// Connections counts userID's connections on this instance.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Publish pushes ev to userID. Through Redis while the hub is wired, locally otherwise or
// when the publish fails. Errors are logged, never returned.
func (h *Hub) Publish(ctx context.Context, userID uint, ev Event, origin string) {
	payload, err := json.Marshal(ev)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "relay.marshal", err, nil)
		return
	}
	observability.RelayEventsTotal.WithLabelValues(string(ev.Type), origin).Inc()

	if h.Wired() {
		err := h.notifier.PublishUser(ctx, userID, string(payload))
		if err == nil {
			return
		}
		observability.LogAsyncOperationError(ctx, "relay.publish", err, map[string]interface{}{
			"user_id": userID,
		})
	}
	h.Broadcast(userID, payload)
}

// Relay forwards a client's relay request to its target, stamping the sender as From.
// Malformed requests are dropped.
func (h *Hub) Relay(ctx context.Context, sender *Client, raw []byte) {
	req, err := ParseRelayRequest(raw)
	if err != nil {
		h.wsLog.LogError(ctx, sender.UserID, err, "relay")
		return
	}
	h.Publish(ctx, req.UserID, NewEvent(req.Type, sender.UserID, req.PostID), OriginClient)
}

// Wired reports whether publishes go through Redis. Until it is true every publish is
// delivered to local connections only.
func (h *Hub) Wired() bool {
	return h.notifier.Enabled() && h.wired.Load()
}

// StartWiring connects the Notifier to this hub: it subscribes to the Redis user pattern and
// forwards messages to matching local connections. The hub stays wired until ctx ends.
func (h *Hub) StartWiring(ctx context.Context) error {
	if !h.notifier.Enabled() || h.wired.Load() {
		return nil
	}
	err := h.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := ParseUserChannel(channel)
		if !ok {
			observability.GlobalLogger.WarnContext(ctx, "invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
	if err != nil {
		return err
	}
	h.wired.Store(true)
	go func() {
		<-ctx.Done()
		h.wired.Store(false)
	}()
	return nil
}

// WireInBackground retries StartWiring every interval until it succeeds or ctx ends.
func (h *Hub) WireInBackground(ctx context.Context, interval time.Duration) {
	if !h.notifier.Enabled() {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := h.StartWiring(ctx); err != nil {
					continue
				}
				h.wsLog.LogLifecycle(ctx, "relay wired", nil)
				return
			}
		}
	}()
}

// Shutdown closes every client's send channel; each WritePump then sends a going-away
// close frame and drops its connection. Registration fails afterwards.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true

	for _, userConns := range h.conns {
		for client := range userConns {
			close(client.Send)
		}
		observability.WebSocketConnectionsTotal.Sub(float64(len(userConns)))
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.wsLog.LogLifecycle(ctx, "shutdown", nil)
	return nil
}
