package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (product, quantity) entry of a session cart.
type CartLine struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// Cart is the server-side cart of one session token. It is stored as a single
// record and rewritten in full on every mutation.
type Cart struct {
	SessionID string     `json:"-"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Line returns the index of the line for productID, or -1.
func (c *Cart) Line(productID uint) int {
	for i, line := range c.Items {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// TotalItems is the sum of quantities over all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.Items {
		total += line.Quantity
	}
	return total
}

// CartProduct is the catalog snapshot attached to a cart line when reading.
type CartProduct struct {
	ID       uint            `json:"id"`
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// CartItemView is a cart line joined with its product snapshot.
type CartItemView struct {
	ProductID uint        `json:"productId"`
	Quantity  int         `json:"quantity"`
	Product   CartProduct `json:"product"`
}

// CartView is the response shape of a cart read.
type CartView struct {
	Items       []CartItemView  `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CartMutation is the result of an add or update.
type CartMutation struct {
	ProductID  uint `json:"productId"`
	Quantity   int  `json:"quantity"`
	TotalItems int  `json:"totalItems"`
}
