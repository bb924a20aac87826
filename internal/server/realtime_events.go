package server

import (
	"context"

	"postshare/internal/featureflags"
	"postshare/internal/models"
	"postshare/internal/notifications"
)

// pushEvent relays a server-originated event to recipient. Self-notifications and events
// while server_push is off are dropped. The push never affects the HTTP response.
func (s *Server) pushEvent(ctx context.Context, recipient, actor uint, kind models.NotificationType, postID *uint) {
	if s.hub == nil || recipient == 0 || recipient == actor {
		return
	}
	if !s.featureFlags.Enabled(featureflags.ServerPush, actor) {
		return
	}
	// The request context is about to be cancelled; delivery must not depend on it.
	s.hub.Publish(context.WithoutCancel(ctx), recipient, notifications.NewEvent(kind, actor, postID), notifications.OriginServer)
}
