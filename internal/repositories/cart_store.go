package repositories

import (
	"context"

	"shoplab/internal/models"
)

// CartStore persists one cart record per session token. Implementations expire
// a cart after a fixed idle period; Save resets that period.
type CartStore interface {
	// Get returns the session's cart, or an empty cart when none is stored.
	Get(ctx context.Context, sessionID string) (*models.Cart, error)
	// Save replaces the whole record.
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
