package handlers

import (
	"shoplab/internal/middleware"
	"shoplab/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddCartItemRequest is the body of POST /cart/items.
type AddCartItemRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1,max=1000"`
}

// UpdateCartItemRequest is the body of PATCH /cart/items/:productId.
// Quantity 0 removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=1000"`
}

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service, validate: newValidator()}
}

// RegisterRoutes registers the cart routes. Every route needs a session header.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.RequireSession())
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:productId", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, cart)
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddCartItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	result, err := h.service.AddItem(c.UserContext(), middleware.SessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, result)
}

func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}
	var req UpdateCartItemRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	result, err := h.service.UpdateItem(c.UserContext(), middleware.SessionID(c), productID, *req.Quantity)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, result)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	productID, err := idParam(c, "productId")
	if err != nil {
		return err
	}
	if err := h.service.RemoveItem(c.UserContext(), middleware.SessionID(c), productID); err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"productId": productID})
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.ClearCart(c.UserContext(), middleware.SessionID(c)); err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": "Cart cleared"})
}
