package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetOnline returns the contacts currently online on this instance
func (h *Handler) GetOnline(c *fiber.Ctx) error {
	online := h.presence.ListOnline()
	return ok(c, fiber.StatusOK, fiber.Map{
		"count":    len(online),
		"contacts": online,
	})
}
