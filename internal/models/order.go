package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a plain label; any status may follow any other.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"orderId" gorm:"index;not null"`
	ProductID uint            `json:"productId" gorm:"index;not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"` // price at the time of order
	CreatedAt time.Time       `json:"createdAt"`
}

// Subtotal returns UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order.
type Order struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	UserID            uint            `json:"userId" gorm:"index;not null"`
	TotalAmount       decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	ShippingFirstName string          `json:"shippingFirstName" gorm:"type:varchar(100);not null"`
	ShippingLastName  string          `json:"shippingLastName" gorm:"type:varchar(100);not null"`
	ShippingAddress   string          `json:"shippingAddress" gorm:"type:varchar(500);not null"`
	CardLast4         string          `json:"cardLast4" gorm:"type:varchar(4);not null"`
	Items             []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
