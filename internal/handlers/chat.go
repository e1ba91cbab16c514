package handlers

import (
	"kawanchat/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SendMessageRequest represents send message request body
type SendMessageRequest struct {
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
}

// SendMessage sends a message to a friend
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	msg, err := h.chat.Send(c.UserContext(), user, req.RecipientID, req.Content)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusCreated, msg)
}

// GetMessages returns the conversation between two users, oldest first
func (h *Handler) GetMessages(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	a, b, err := pair(c, "user1Id", "user2Id")
	if err != nil {
		return h.fail(c, err)
	}

	messages, err := h.chat.History(c.UserContext(), user, a, b)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, messages)
}

// GetLastMessage returns the preview of the latest message, or null
func (h *Handler) GetLastMessage(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	a, b, err := pair(c, "user1Id", "user2Id")
	if err != nil {
		return h.fail(c, err)
	}

	last, err := h.chat.LastMessage(c.UserContext(), user, a, b)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, last)
}

// MarkSeen marks every unseen message from senderId to recipientId as seen
func (h *Handler) MarkSeen(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	senderID, recipientID, err := pair(c, "senderId", "recipientId")
	if err != nil {
		return h.fail(c, err)
	}

	updated, err := h.chat.MarkSeen(c.UserContext(), user, senderID, recipientID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"updated": updated})
}

func pair(c *fiber.Ctx, first, second string) (int64, int64, error) {
	a, err := paramID(c, first)
	if err != nil {
		return 0, 0, err
	}
	b, err := paramID(c, second)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
