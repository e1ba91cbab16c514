package handlers

import (
	"strconv"

	"kawanchat/server/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errInvalidBody = apperror.InvalidArg("INVALID_BODY", "Invalid request body")

// statusOf maps an error code to the HTTP status returned for it
func statusOf(code apperror.Code) int {
	switch code {
	case apperror.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case apperror.CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case apperror.CodeForbidden:
		return fiber.StatusForbidden
	case apperror.CodeNotFound:
		return fiber.StatusNotFound
	case apperror.CodeConflict:
		return fiber.StatusConflict
	case apperror.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	code := apperror.CodeOf(err)
	status := statusOf(code)
	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   apperror.MessageOf(err),
		"code":    code,
	})
}

func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// paramID parses a positive int64 path parameter
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidArg("INVALID_ID", "Invalid "+name)
	}
	return id, nil
}
