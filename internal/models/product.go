package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the stock level at or below which a product is reported
// as low on the admin dashboard.
const LowStockThreshold = 5

// Product represents a product in the store.
// Products are never hard-deleted; Active=false hides them from the catalog while
// keeping them resolvable for order history.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;type:varchar(120);not null"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	ImageURL    string          `json:"imageUrl,omitempty" gorm:"type:varchar(500)"`
	Active      bool            `json:"active" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
