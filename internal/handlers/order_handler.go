package handlers

import (
	"shoplab/internal/apperror"
	"shoplab/internal/middleware"
	"shoplab/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CreateOrderRequest is the body of POST /orders. The payment fields are
// checked by the service so a bad card reports per-field details.
type CreateOrderRequest struct {
	Shipping services.ShippingDetails `json:"shipping"`
	Payment  services.PaymentDetails  `json:"payment"`
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers the order routes behind authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	orderRoutes := router.Group("/orders", authRequired)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/", middleware.RequireSession(), h.HandleCreateOrder)
}

// HandleCreateOrder checks out the session cart.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		return apperror.Unauthorized("Authentication required")
	}
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body", map[string]string{"body": err.Error()})
	}

	order, err := h.service.PlaceOrder(c.UserContext(), services.CheckoutRequest{
		SessionID: middleware.SessionID(c),
		UserID:    caller.UserID,
		Shipping:  req.Shipping,
		Payment:   req.Payment,
	})
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, order)
}

// HandleListOrders returns the caller's own orders.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		return apperror.Unauthorized("Authentication required")
	}
	orders, err := h.service.ListForUser(c.UserContext(), caller.UserID)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, orders)
}

// HandleGetOrder returns one order to its owner or an admin.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		return apperror.Unauthorized("Authentication required")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), id, caller)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, order)
}
