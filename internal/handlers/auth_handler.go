package handlers

import (
	"strings"
	"time"

	"shoplab/internal/apperror"
	"shoplab/internal/config"
	"shoplab/internal/middleware"
	"shoplab/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	cookie      config.CookieConfig
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/refresh", h.HandleRefresh)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/me", authRequired, h.HandleMe)
}

// HandleLogin verifies credentials, returns an access token and sets the
// rotation token cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	return success(c, fiber.StatusOK, result)
}

// HandleRefresh mints a new access token from the rotation cookie. The cookie
// is cleared when it can no longer be used.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	token := c.Cookies(h.cookie.Name)
	if token == "" {
		h.clearRefreshCookie(c)
		return apperror.Unauthorized("No refresh token")
	}

	result, err := h.authService.Refresh(c.UserContext(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		return err
	}
	return success(c, fiber.StatusOK, result)
}

// HandleLogout revokes the rotation token and clears its cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), c.Cookies(h.cookie.Name)); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return success(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		return apperror.Unauthorized("Authentication required")
	}
	user, err := h.authService.GetUser(c.UserContext(), caller.UserID)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, user)
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		Expires:  expiresAt,
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cookie.SameSite,
	})
}
