package middleware

import (
	"strings"

	"shoplab/internal/apperror"
	"shoplab/internal/models"
	"shoplab/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalRole     = "role"
)

// TokenValidator validates bearer access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*services.AccessClaims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT access token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthorized("Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return apperror.Unauthorized("Authorization header format must be 'Bearer <token>'")
		}

		claims, err := validator.ValidateAccessToken(parts[1])
		if err != nil {
			return err
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// AdminOnly rejects callers without the admin role. It must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CurrentCaller(c)
		if !ok {
			return apperror.Unauthorized("Authentication required")
		}
		if !caller.IsAdmin() {
			return apperror.Forbidden("Admin access required")
		}
		return c.Next()
	}
}

// CurrentCaller returns the authenticated user of the request.
func CurrentCaller(c *fiber.Ctx) (services.Caller, bool) {
	userID, ok := c.Locals(LocalUserID).(uint)
	if !ok {
		return services.Caller{}, false
	}
	role, _ := c.Locals(LocalRole).(models.Role)
	return services.Caller{UserID: userID, Role: role}, true
}
