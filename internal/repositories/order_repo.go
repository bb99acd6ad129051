package repositories

import (
	"context"

	"shoplab/internal/models"

	"github.com/shopspring/decimal"
)

// OrderStats are the order aggregates shown on the admin dashboard.
type OrderStats struct {
	Total    int64                        `json:"total"`
	ByStatus map[models.OrderStatus]int64 `json:"byStatus"`
	Revenue  decimal.Decimal              `json:"revenue"` // cancelled orders excluded
}

// OrderRepository defines the interface for order data access.
// Orders and their items are never deleted.
type OrderRepository interface {
	// Create writes the order header only; items are written with AddItem.
	Create(ctx context.Context, order *models.Order) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	Stats(ctx context.Context) (OrderStats, error)
}
