package repositories

import (
	"context"
	"time"

	"shoplab/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// UpdatePassword replaces the stored credential in place.
	UpdatePassword(ctx context.Context, id uint, credential string) error
	Count(ctx context.Context) (int64, error)
}

// SessionRepository stores issued rotation tokens.
type SessionRepository interface {
	Create(ctx context.Context, session *models.AuthSession) error
	GetByID(ctx context.Context, id string) (*models.AuthSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, userID uint, now time.Time) error
}
