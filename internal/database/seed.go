package database

import (
	"context"
	"errors"
	"fmt"

	"shoplab/internal/models"
	"shoplab/internal/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedProducts is the demo catalog. Stock levels are chosen so that test
// suites can hit the out-of-stock and low-stock paths.
func SeedProducts() []models.Product {
	return []models.Product{
		{Slug: "wireless-mouse", Name: "Wireless Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.00"), Stock: 50, Active: true},
		{Slug: "mechanical-keyboard", Name: "Mechanical Keyboard", Description: "Tenkeyless keyboard with brown switches", Price: decimal.RequireFromString("75.00"), Stock: 25, Active: true},
		{Slug: "ultrabook-14", Name: "Ultrabook 14", Description: "Lightweight 14 inch laptop", Price: decimal.RequireFromString("1199.99"), Stock: 10, Active: true},
		{Slug: "usb-c-hub", Name: "USB-C Hub", Description: "7-in-1 hub with HDMI and card reader", Price: decimal.RequireFromString("39.50"), Stock: 5, Active: true},
		{Slug: "noise-cancelling-headphones", Name: "Noise Cancelling Headphones", Description: "Over-ear, 30h battery", Price: decimal.RequireFromString("249.00"), Stock: 1, Active: true},
		{Slug: "webcam-1080p", Name: "Webcam 1080p", Description: "Full HD webcam with privacy shutter", Price: decimal.RequireFromString("59.90"), Stock: 0, Active: true},
		{Slug: "retro-trackball", Name: "Retro Trackball", Description: "Discontinued", Price: decimal.RequireFromString("19.99"), Stock: 3, Active: false},
	}
}

// SeedUsers are the demo accounts. They are stored with the legacy credential
// marker and upgraded to the hashed format on first login.
func SeedUsers() []models.User {
	return []models.User{
		{Username: "standard_user", Password: services.LegacyCredentialMarker, Role: models.RoleStandard},
		{Username: "locked_user", Password: services.LegacyCredentialMarker, Role: models.RoleLocked},
		{Username: "admin", Password: services.LegacyCredentialMarker, Role: models.RoleAdmin},
	}
}

// Seed inserts the demo catalog and accounts. Existing rows, matched by slug or
// username, are left untouched so the command can be re-run.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	db = db.WithContext(ctx)

	for _, p := range SeedProducts() {
		var existing models.Product
		err := db.Where("slug = ?", p.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up product %s: %w", p.Slug, err)
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
		}
		log.Info("Seeded product", zap.String("slug", p.Slug), zap.Uint("id", p.ID))
	}

	for _, u := range SeedUsers() {
		var existing models.User
		err := db.Where("username = ?", u.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up user %s: %w", u.Username, err)
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		log.Info("Seeded user", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	}
	return nil
}
