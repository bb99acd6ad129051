package middleware

import (
	"strings"

	"shoplab/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

const (
	// HeaderSessionID carries the client-generated cart session token.
	HeaderSessionID = "X-Session-ID"
	// LocalSessionID is the locals key set by RequireSession.
	LocalSessionID = "session_id"

	maxSessionIDLength = 128
)

// RequireSession reads the cart session token from the request header.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Header values point into a buffer fasthttp reuses; the id outlives the request.
		sessionID := strings.Clone(strings.TrimSpace(c.Get(HeaderSessionID)))
		if sessionID == "" {
			return apperror.Validation("Session ID is required", map[string]string{
				HeaderSessionID: "header is required",
			})
		}
		if len(sessionID) > maxSessionIDLength {
			return apperror.Validation("Session ID is too long", map[string]string{
				HeaderSessionID: "must be at most 128 characters",
			})
		}
		c.Locals(LocalSessionID, sessionID)
		return c.Next()
	}
}

// SessionID returns the session token stored by RequireSession.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalSessionID).(string)
	return id
}
