package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"shoplab/internal/apperror"
	"shoplab/internal/models"
	"shoplab/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImageStorage stores product images and returns the URL they are served from.
type ImageStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// ProductInput is the admin payload for creating or editing a product.
// An empty slug is derived from the name.
type ProductInput struct {
	Slug        string          `json:"slug" validate:"omitempty,max=120"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"` // initial stock; ignored by UpdateProduct
	Active      *bool           `json:"active"`
}

// ImageUpload is a product image received from an admin.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo    repositories.ProductRepository
	storage ImageStorage
}

// NewProductService creates a new ProductService. storage may be nil, in which
// case image uploads are rejected.
func NewProductService(repo repositories.ProductRepository, storage ImageStorage) *ProductService {
	return &ProductService{repo: repo, storage: storage}
}

// ListCatalog returns the active products, optionally filtered by search.
func (s *ProductService) ListCatalog(ctx context.Context, search string) ([]models.Product, error) {
	products, err := s.repo.List(ctx, repositories.ProductFilter{ActiveOnly: true, Search: search})
	if err != nil {
		return nil, apperror.Internal("failed to list products", err)
	}
	return products, nil
}

// GetCatalogProduct returns an active product.
func (s *ProductService) GetCatalogProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperror.NotFound("product %d not found", id)
	}
	return product, nil
}

// ListAll returns every product, inactive ones included.
func (s *ProductService) ListAll(ctx context.Context, search string) ([]models.Product, error) {
	products, err := s.repo.List(ctx, repositories.ProductFilter{Search: search})
	if err != nil {
		return nil, apperror.Internal("failed to list products", err)
	}
	return products, nil
}

// GetProduct returns a product whether or not it is active.
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.getProduct(ctx, id)
}

// CreateProduct adds a product to the catalog. New products are active unless
// the input says otherwise.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Slug:        resolveSlug(input.Slug, input.Name),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Active:      true,
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.ensureSlugFree(ctx, product.Slug, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, translateProductWriteError(err, product.Slug)
	}
	return product, nil
}

// UpdateProduct replaces the descriptive fields of a product. The image is
// kept and input.Stock is ignored: stock only changes through SetStock and
// checkout.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Slug = resolveSlug(input.Slug, input.Name)
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.ensureSlugFree(ctx, product.Slug, product.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, translateProductWriteError(err, product.Slug)
	}
	return s.getProduct(ctx, id)
}

// DeactivateProduct hides a product from the catalog. Products are never
// hard-deleted since orders keep referring to them.
func (s *ProductService) DeactivateProduct(ctx context.Context, id uint) error {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return err
	}
	if !product.Active {
		return nil
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return translateProductWriteError(err, product.Slug)
	}
	return nil
}

// SetStock overwrites the stock level of a product.
func (s *ProductService) SetStock(ctx context.Context, id uint, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, apperror.Validation("Stock cannot be negative", map[string]string{"stock": "must be 0 or greater"})
	}
	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("product %d not found", id)
		}
		return nil, apperror.Internal("failed to update stock", err)
	}
	return s.getProduct(ctx, id)
}

// UploadImage stores a new image for the product and records its URL.
func (s *ProductService) UploadImage(ctx context.Context, id uint, upload ImageUpload) (*models.Product, error) {
	if s.storage == nil {
		return nil, apperror.Internal("image storage is not configured", nil)
	}
	ext, ok := allowedImageTypes[upload.ContentType]
	if !ok {
		return nil, apperror.Validation("Unsupported image type", map[string]string{"image": "must be jpeg, png, webp or gif"})
	}

	product, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("products", product.Slug, uuid.NewString()+ext)
	url, err := s.storage.Upload(ctx, key, upload.Body, upload.Size, upload.ContentType)
	if err != nil {
		return nil, apperror.Internal("failed to store product image", err)
	}

	if err := s.repo.SetImageURL(ctx, id, url); err != nil {
		return nil, translateProductWriteError(err, product.Slug)
	}
	return s.getProduct(ctx, id)
}

func (s *ProductService) getProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("product %d not found", id)
		}
		return nil, apperror.Internal("failed to load product", err)
	}
	return product, nil
}

// ensureSlugFree reports a taken slug as a field error. The unique index still
// catches a concurrent writer that wins the race.
func (s *ProductService) ensureSlugFree(ctx context.Context, slug string, selfID uint) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return apperror.Internal("failed to check product slug", err)
	case existing.ID != selfID:
		return translateProductWriteError(repositories.ErrDuplicate, slug)
	}
	return nil
}

func validateProductInput(input ProductInput) error {
	details := make(map[string]string)
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "name is required"
	}
	if input.Price.IsNegative() {
		details["price"] = "must be 0 or greater"
	}
	if input.Stock < 0 {
		details["stock"] = "must be 0 or greater"
	}
	switch {
	case input.Slug != "" && Slugify(input.Slug) != input.Slug:
		details["slug"] = "may only contain lowercase letters, digits and dashes"
	case input.Slug == "" && details["name"] == "" && Slugify(input.Name) == "":
		details["slug"] = "cannot be derived from name"
	}
	if len(details) > 0 {
		return apperror.Validation("Invalid product", details)
	}
	return nil
}

func translateProductWriteError(err error, slug string) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return apperror.Validation("Invalid product", map[string]string{
			"slug": fmt.Sprintf("slug %q is already in use", slug),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return apperror.NotFound("product not found")
	default:
		return apperror.Internal("failed to save product", err)
	}
}

func resolveSlug(slug, name string) string {
	if slug != "" {
		return slug
	}
	return Slugify(name)
}

// Slugify lowercases s and joins its runs of letters and digits with dashes.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}
