package handlers

import (
	"context"

	"kawanchat/server/internal/middleware"
	"kawanchat/server/internal/models"
	ws "kawanchat/server/internal/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func (h *Handler) WebSocketUpgrade(c *fiber.Ctx) error {
	// Check if this is a WebSocket upgrade request
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
		"success": false,
		"error":   "WebSocket upgrade required",
	})
}

// WebSocket serves one session until the connection closes
func (h *Handler) WebSocket(c *websocket.Conn) {
	// Set by the auth middleware before the upgrade
	user, isUser := c.Locals(middleware.UserKey).(models.User)
	if !isUser {
		c.Close()
		return
	}

	client := ws.NewClient(user, c, h.hub, h.dispatcher)
	if !h.hub.Join(client) {
		h.log.Info("rejecting websocket session, hub stopped", zap.Int64("user_id", user.ID))
		c.Close()
		return
	}

	// Start read and write pumps; ReadPump blocks until the connection closes
	go client.WritePump()
	client.ReadPump(context.Background())
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(c *fiber.Ctx) error {
	users, sessions := h.hub.Stats()
	return ok(c, fiber.StatusOK, fiber.Map{
		"onlineUsers": users,
		"sessions":    sessions,
		"userIds":     h.hub.OnlineUserIDs(),
	})
}
