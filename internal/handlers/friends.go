package handlers

import (
	"kawanchat/server/internal/middleware"
	"kawanchat/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequestRequest represents send friend request body
type SendFriendRequestRequest struct {
	RecipientID int64 `json:"recipientId"`
}

// RespondRequest represents the answer to a friend request
type RespondRequest struct {
	Decision models.Decision `json:"decision"`
}

// SendFriendRequest sends a friend request to another user
func (h *Handler) SendFriendRequest(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req SendFriendRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	fr, err := h.friends.SendRequest(c.UserContext(), user.ID, req.RecipientID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fr)
}

// RespondFriendRequest accepts or rejects a friend request sent to the caller
func (h *Handler) RespondFriendRequest(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	requestID, err := paramID(c, "requestId")
	if err != nil {
		return h.fail(c, err)
	}

	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, errInvalidBody)
	}

	if err := h.friends.Respond(c.UserContext(), requestID, user.ID, req.Decision); err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"requestId": requestID, "status": req.Decision})
}

// GetPendingRequests returns requests waiting for the caller's answer
func (h *Handler) GetPendingRequests(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	requests, err := h.friends.ListPendingRequestsFor(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, requests)
}

// GetSentRequests returns the caller's unanswered requests
func (h *Handler) GetSentRequests(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	requests, err := h.friends.ListSentRequests(c.UserContext(), user.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, requests)
}

// GetFriends returns all friends of the caller with their live status
func (h *Handler) GetFriends(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	friends, err := h.friends.ListFriends(c.UserContext(), user)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, friends)
}

// GetFriend returns one friend of the caller
func (h *Handler) GetFriend(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	friendID, err := paramID(c, "friendId")
	if err != nil {
		return h.fail(c, err)
	}

	detail, err := h.friends.FriendDetail(c.UserContext(), user, friendID)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, detail)
}

// RemoveFriend ends the friendship between the caller and friendId
func (h *Handler) RemoveFriend(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return h.fail(c, err)
	}

	friendID, err := paramID(c, "friendId")
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.friends.RemoveFriendship(c.UserContext(), user.ID, friendID); err != nil {
		return h.fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"friendId": friendID})
}
