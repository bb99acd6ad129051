package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shoplab/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves products ordered by id.
func (r *GORMProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := conn(ctx, r.db).Order("id")
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID, active or not.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetBySlug retrieves a single product by its slug.
func (r *GORMProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return &product, nil
}

func (r *GORMProductRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := conn(ctx, r.db).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product slug %s: %w", product.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update overwrites the descriptive columns of an existing product, zero values
// included. Stock is not written here; it only changes through UpdateStock and
// DecrementStock so a stale read cannot undo a checkout.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := conn(ctx, r.db).Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]any{
		"slug":        product.Slug,
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"image_url":   product.ImageURL,
		"active":      product.Active,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product slug %s: %w", product.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", product.ID, ErrNotFound)
	}
	return nil
}

// SetActive flips only the active flag.
func (r *GORMProductRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumn(ctx, id, "active", active)
}

// SetImageURL records only the image location.
func (r *GORMProductRepository) SetImageURL(ctx context.Context, id uint, url string) error {
	return r.updateColumn(ctx, id, "image_url", url)
}

func (r *GORMProductRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := conn(ctx, r.db).Model(&models.Product{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of product %d: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) UpdateStock(ctx context.Context, id uint, stock int) error {
	res := conn(ctx, r.db).Model(&models.Product{}).Where("id = ?", id).Update("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("failed to update stock of product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) DecrementStock(ctx context.Context, id uint, qty int) error {
	if qty < 1 {
		return fmt.Errorf("decrement of product %d by %d: %w", id, qty, ErrInvalidQuantity)
	}
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock of product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", id, ErrInsufficientStock)
	}
	return nil
}

func (r *GORMProductRepository) Stats(ctx context.Context, lowStockThreshold int) (ProductStats, error) {
	var stats ProductStats
	db := conn(ctx, r.db).Model(&models.Product{})
	if err := db.Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("failed to count products: %w", err)
	}
	if err := conn(ctx, r.db).Model(&models.Product{}).Where("active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, fmt.Errorf("failed to count active products: %w", err)
	}
	if err := conn(ctx, r.db).Model(&models.Product{}).
		Where("active = ? AND stock <= ?", true, lowStockThreshold).
		Count(&stats.LowStock).Error; err != nil {
		return stats, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return stats, nil
}
