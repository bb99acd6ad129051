package repositories

import (
	"context"

	"shoplab/internal/models"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	ActiveOnly bool
	Search     string // case-insensitive match on name or description
}

// ProductStats are the catalog counts shown on the admin dashboard.
type ProductStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	LowStock int64 `json:"lowStock"`
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	// GetByIDs resolves ids in one read, inactive products included. Unknown
	// ids are absent from the result.
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update writes the descriptive fields. Stock is left untouched.
	Update(ctx context.Context, product *models.Product) error
	SetActive(ctx context.Context, id uint, active bool) error
	SetImageURL(ctx context.Context, id uint, url string) error
	UpdateStock(ctx context.Context, id uint, stock int) error
	// DecrementStock subtracts qty only if at least qty is in stock, and
	// returns ErrInsufficientStock otherwise. qty must be positive.
	DecrementStock(ctx context.Context, id uint, qty int) error
	Stats(ctx context.Context, lowStockThreshold int) (ProductStats, error)
}
