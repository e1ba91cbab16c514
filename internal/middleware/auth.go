package middleware

import (
	"strings"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// UserKey is the Locals key holding the authenticated models.User
const UserKey = "user"

// AuthMiddleware validates the JWT from the "token" cookie or a Bearer
// header. onAuthenticated, when set, sees every resolved identity.
func AuthMiddleware(secret []byte, onAuthenticated func(models.User)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFrom(c)
		if tokenString == "" {
			return unauthorized(c, "Unauthorized - No token provided")
		}

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			return unauthorized(c, "Unauthorized - Invalid token")
		}

		user := claims.User()
		if user.ID == 0 || user.Email == "" {
			return unauthorized(c, "Unauthorized - Incomplete identity")
		}
		if onAuthenticated != nil {
			onAuthenticated(user)
		}

		// Store user info in context
		c.Locals(UserKey, user)

		return c.Next()
	}
}

func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("token"); token != "" {
		return token
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   msg,
		"code":    apperror.CodeUnauthenticated,
	})
}

// CurrentUser gets the authenticated user from context
func CurrentUser(c *fiber.Ctx) (models.User, error) {
	user, ok := c.Locals(UserKey).(models.User)
	if !ok {
		return models.User{}, apperror.ErrUnauthenticated
	}
	return user, nil
}
