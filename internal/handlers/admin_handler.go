package handlers

import (
	"shoplab/internal/apperror"
	"shoplab/internal/models"
	"shoplab/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UpdateStockRequest is the body of PATCH /admin/products/:id/stock.
type UpdateStockRequest struct {
	Stock *int `json:"stock" validate:"required,min=0"`
}

// UpdateOrderStatusRequest is the body of PATCH /admin/orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// AdminHandler handles the admin-only catalog, order, user and dashboard routes.
type AdminHandler struct {
	products  *services.ProductService
	orders    *services.OrderService
	auth      *services.AuthService
	dashboard *services.DashboardService
	validate  *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	products *services.ProductService,
	orders *services.OrderService,
	auth *services.AuthService,
	dashboard *services.DashboardService,
) *AdminHandler {
	return &AdminHandler{
		products:  products,
		orders:    orders,
		auth:      auth,
		dashboard: dashboard,
		validate:  newValidator(),
	}
}

// RegisterRoutes registers the admin routes behind the given guards.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	admin := router.Group("/admin", guards...)

	admin.Get("/dashboard", h.HandleDashboard)

	admin.Get("/products", h.HandleListProducts)
	admin.Post("/products", h.HandleCreateProduct)
	admin.Get("/products/:id", h.HandleGetProduct)
	admin.Put("/products/:id", h.HandleUpdateProduct)
	admin.Delete("/products/:id", h.HandleDeactivateProduct)
	admin.Patch("/products/:id/stock", h.HandleUpdateStock)
	admin.Post("/products/:id/image", h.HandleUploadImage)

	admin.Get("/orders", h.HandleListOrders)
	admin.Patch("/orders/:id/status", h.HandleUpdateOrderStatus)

	admin.Post("/users", h.HandleCreateUser)
}

func (h *AdminHandler) HandleDashboard(c *fiber.Ctx) error {
	summary, err := h.dashboard.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, summary)
}

func (h *AdminHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.products.ListAll(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, products)
}

func (h *AdminHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	product, err := h.products.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, product)
}

func (h *AdminHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	product, err := h.products.CreateProduct(c.UserContext(), req)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, product)
}

func (h *AdminHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req services.ProductInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	product, err := h.products.UpdateProduct(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, product)
}

// HandleDeactivateProduct soft-deletes a product.
func (h *AdminHandler) HandleDeactivateProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.DeactivateProduct(c.UserContext(), id); err != nil {
		return err
	}
	return success(c, fiber.StatusOK, fiber.Map{"id": id, "active": false})
}

func (h *AdminHandler) HandleUpdateStock(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateStockRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	product, err := h.products.SetStock(c.UserContext(), id, *req.Stock)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, product)
}

// HandleUploadImage accepts a multipart form with an "image" file.
func (h *AdminHandler) HandleUploadImage(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	header, err := c.FormFile("image")
	if err != nil {
		return apperror.Validation("Image is required", map[string]string{"image": "multipart file field is required"})
	}
	file, err := header.Open()
	if err != nil {
		return apperror.Internal("failed to read upload", err)
	}
	defer file.Close()

	product, err := h.products.UploadImage(c.UserContext(), id, services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, product)
}

func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, orders)
}

func (h *AdminHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req UpdateOrderStatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, order)
}

func (h *AdminHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.auth.CreateUser(c.UserContext(), req)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, user)
}
