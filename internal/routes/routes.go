package routes

import (
	"kawanchat/server/internal/handlers"
	"kawanchat/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes. auth resolves the caller
// for every protected route.
func SetupRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Kawanchat API is running",
		})
	})

	// Friend routes (protected)
	// Static request paths are registered before /:friendId so they win
	friends := api.Group("/friends", auth)
	friends.Post("/requests", middleware.FriendRequestLimiter(), h.SendFriendRequest)
	friends.Get("/requests", middleware.ReadLimiter(), h.GetPendingRequests)
	friends.Get("/requests/sent", middleware.ReadLimiter(), h.GetSentRequests)
	friends.Post("/requests/:requestId/respond", middleware.WriteLimiter(), h.RespondFriendRequest)
	friends.Get("/", middleware.ReadLimiter(), h.GetFriends)
	friends.Get("/:friendId", middleware.ReadLimiter(), h.GetFriend)
	friends.Delete("/:friendId", middleware.WriteLimiter(), h.RemoveFriend)

	// Message routes (protected)
	messages := api.Group("/messages", auth)
	messages.Post("/", middleware.WriteLimiter(), h.SendMessage)
	messages.Post("/seen/:senderId/:recipientId", middleware.WriteLimiter(), h.MarkSeen)
	messages.Get("/:user1Id/:user2Id", middleware.ReadLimiter(), h.GetMessages)
	messages.Get("/:user1Id/:user2Id/last", middleware.ReadLimiter(), h.GetLastMessage)

	// Presence routes (protected)
	api.Get("/presence/online", auth, h.GetOnline)

	// WebSocket route (protected)
	api.Get("/ws", auth, h.WebSocketUpgrade, websocket.New(h.WebSocket))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", auth, h.GetWebSocketStats)
}
