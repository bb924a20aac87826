package server

import (
	"context"

	"postshare/internal/featureflags"
	"postshare/internal/middleware"
	"postshare/internal/models"
	"postshare/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// UpgradeRequired admits websocket upgrades only and settles who the connection belongs to.
// A token verified by WebSocketAuth wins; otherwise the userId query parameter names the user,
// who must exist.
func (s *Server) UpgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if _, ok := tokenUserID(c); ok {
		return c.Next()
	}

	uid := c.QueryInt("userId", 0)
	if uid <= 0 {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("userId or token required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := s.userRepo.GetByID(ctx, uint(uid)); err != nil {
		return respondError(c, err)
	}

	c.Locals("userID", uint(uid))
	return c.Next()
}

// WebsocketHandler returns a websocket handler that registers connections with the Hub.
// Messages a client sends are relay requests; they are forwarded while client_relay is on.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		ctx := middleware.WithUserID(context.Background(), uid)
		wsLog := s.hub.Logger()

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			wsLog.LogError(ctx, uid, err, "register")
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			_ = conn.Close()
			return
		}
		wsLog.LogConnect(ctx, uid)

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			if !s.featureFlags.Enabled(featureflags.ClientRelay, c.UserID) {
				return
			}
			s.hub.Relay(ctx, c, message)
		}

		go client.WritePump()
		client.ReadPump(ctx, wsLog)
	})
}
