package handlers

import (
	"shoplab/internal/config"
	"shoplab/internal/middleware"
	"shoplab/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Services are the business services behind the HTTP routes.
type Services struct {
	Products  *services.ProductService
	Carts     *services.CartService
	Orders    *services.OrderService
	Auth      *services.AuthService
	Dashboard *services.DashboardService
}

// RegisterRoutes mounts every API route on router.
func RegisterRoutes(router fiber.Router, svc Services, cookie config.CookieConfig) {
	authRequired := middleware.AuthRequired(svc.Auth)

	NewAuthHandler(svc.Auth, cookie).RegisterRoutes(router, authRequired)
	NewProductHandler(svc.Products).RegisterRoutes(router)
	NewCartHandler(svc.Carts).RegisterRoutes(router)
	NewOrderHandler(svc.Orders).RegisterRoutes(router, authRequired)
	NewAdminHandler(svc.Products, svc.Orders, svc.Auth, svc.Dashboard).
		RegisterRoutes(router, authRequired, middleware.AdminOnly())
}
