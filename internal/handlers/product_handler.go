package handlers

import (
	"shoplab/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the public catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
}

// HandleListProducts lists active products. ?search= filters by name or description.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListCatalog(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, products)
}

// HandleGetProduct returns one active product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetCatalogProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, product)
}
