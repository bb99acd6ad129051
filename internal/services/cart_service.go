package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shoplab/internal/apperror"
	"shoplab/internal/models"
	"shoplab/internal/repositories"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 1000

// CartService owns the session carts. Stock checks made here are advisory:
// they read the catalog at call time and reserve nothing.
//
// Every mutation is a read-modify-write of the whole cart record with no
// version check, so concurrent mutations of the same session race and the
// last write wins.
type CartService struct {
	store    repositories.CartStore
	products repositories.ProductRepository
	now      func() time.Time
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.CartStore, products repositories.ProductRepository) *CartService {
	return &CartService{store: store, products: products, now: time.Now}
}

// GetCart returns the cart lines joined with their current product snapshot.
// Lines whose product is gone or inactive are left out of the view and its
// totals, but stay in storage.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &models.CartView{Items: []models.CartItemView{}, TotalAmount: decimal.Zero}
	if len(cart.Items) == 0 {
		return view, nil
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("failed to load cart products", err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range cart.Items {
		p, ok := byID[line.ProductID]
		if !ok || !p.Active {
			continue
		}
		view.Items = append(view.Items, models.CartItemView{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Product: models.CartProduct{
				ID:       p.ID,
				Slug:     p.Slug,
				Name:     p.Name,
				Price:    p.Price,
				Stock:    p.Stock,
				ImageURL: p.ImageURL,
			},
		})
		view.TotalItems += line.Quantity
		view.TotalAmount = view.TotalAmount.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return view, nil
}

// AddItem adds quantity to the product's line, creating it when absent. The
// resulting line quantity may not exceed the product's current stock.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID uint, quantity int) (*models.CartMutation, error) {
	if quantity < 1 || quantity > MaxLineQuantity {
		return nil, invalidQuantity(1)
	}
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := cart.Line(productID)
	existing := 0
	if idx >= 0 {
		existing = cart.Items[idx].Quantity
	}
	// Compared as a difference so a stored quantity can never make the sum wrap.
	if quantity > product.Stock-existing {
		return nil, apperror.OutOfStock("only %d of %s in stock", product.Stock, product.Name)
	}
	if quantity > MaxLineQuantity-existing {
		return nil, invalidQuantity(1)
	}
	newQuantity := existing + quantity

	if idx >= 0 {
		cart.Items[idx].Quantity = newQuantity
	} else {
		cart.Items = append(cart.Items, models.CartLine{ProductID: productID, Quantity: newQuantity})
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return &models.CartMutation{ProductID: productID, Quantity: newQuantity, TotalItems: cart.TotalItems()}, nil
}

// UpdateItem sets the quantity of an existing line. A quantity of 0 removes it.
func (s *CartService) UpdateItem(ctx context.Context, sessionID string, productID uint, quantity int) (*models.CartMutation, error) {
	if quantity < 0 || quantity > MaxLineQuantity {
		return nil, invalidQuantity(0)
	}
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := cart.Line(productID)
	if idx < 0 {
		return nil, apperror.NotFound("product %d is not in the cart", productID)
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		product, err := s.activeProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if quantity > product.Stock {
			return nil, apperror.OutOfStock("only %d of %s in stock", product.Stock, product.Name)
		}
		cart.Items[idx].Quantity = quantity
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return &models.CartMutation{ProductID: productID, Quantity: quantity, TotalItems: cart.TotalItems()}, nil
}

// RemoveItem deletes the product's line.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID uint) error {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	idx := cart.Line(productID)
	if idx < 0 {
		return apperror.NotFound("product %d is not in the cart", productID)
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.save(ctx, cart)
}

// ClearCart empties the cart. Clearing an empty or unknown cart succeeds.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errMissingSession
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return apperror.Internal("failed to clear cart", err)
	}
	return nil
}

var errMissingSession = apperror.Validation("Session ID is required", map[string]string{"X-Session-ID": "header is required"})

func (s *CartService) load(ctx context.Context, sessionID string) (*models.Cart, error) {
	if sessionID == "" {
		return nil, errMissingSession
	}
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal("failed to load cart", err)
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, cart); err != nil {
		return apperror.Internal("failed to save cart", err)
	}
	return nil
}

func (s *CartService) activeProduct(ctx context.Context, productID uint) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("product %d not found", productID)
		}
		return nil, apperror.Internal("failed to load product", err)
	}
	if !product.Active {
		return nil, apperror.NotFound("product %d not found", productID)
	}
	return product, nil
}

func invalidQuantity(lowest int) error {
	return apperror.Validation("Invalid quantity", map[string]string{
		"quantity": fmt.Sprintf("must be between %d and %d", lowest, MaxLineQuantity),
	})
}
