package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoplab/internal/apperror"
	"shoplab/internal/models"
	"shoplab/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShippingDetails is the shipping snapshot stored on an order.
type ShippingDetails struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Address   string `json:"address" validate:"required"`
}

func (s ShippingDetails) fieldErrors() map[string]string {
	details := make(map[string]string)
	if strings.TrimSpace(s.FirstName) == "" {
		details["firstName"] = "first name is required"
	}
	if strings.TrimSpace(s.LastName) == "" {
		details["lastName"] = "last name is required"
	}
	if strings.TrimSpace(s.Address) == "" {
		details["address"] = "address is required"
	}
	return details
}

// CheckoutRequest turns the cart of SessionID into an order owned by UserID.
type CheckoutRequest struct {
	SessionID string
	UserID    uint
	Shipping  ShippingDetails
	Payment   PaymentDetails
}

// Caller identifies the authenticated user reading an order.
type Caller struct {
	UserID uint
	Role   models.Role
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	carts     repositories.CartStore
	tx        repositories.TxManager
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are emitted.
func NewOrderService(
	orders repositories.OrderRepository,
	products repositories.ProductRepository,
	carts repositories.CartStore,
	tx repositories.TxManager,
	publisher EventPublisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder converts the session cart into a pending order.
//
// Card and shipping details are checked before anything is read. Stock is
// re-validated against a fresh catalog read, then the order header, its items
// and the stock decrements are written in one transaction. Each decrement is
// conditional on enough stock remaining, so a concurrent checkout that got
// there first makes this one fail with OUT_OF_STOCK and roll back.
// The cart is cleared after commit.
func (s *OrderService) PlaceOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	details := req.Payment.fieldErrors()
	for field, msg := range req.Shipping.fieldErrors() {
		details[field] = msg
	}
	if len(details) > 0 {
		return nil, apperror.Validation("Invalid checkout details", details)
	}
	if req.SessionID == "" {
		return nil, errMissingSession
	}

	cart, err := s.carts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, apperror.Internal("failed to load cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperror.ErrCartEmpty
	}

	products, err := s.resolveProducts(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product := products[line.ProductID]
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return nil, apperror.Validation("Invalid cart", map[string]string{
				"quantity": fmt.Sprintf("quantity of %s must be between 1 and %d", product.Name, MaxLineQuantity),
			})
		}
		if line.Quantity > product.Stock {
			return nil, outOfStock(product, line.Quantity)
		}
		item := models.OrderItem{ProductID: product.ID, Quantity: line.Quantity, UnitPrice: product.Price}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}

	order := &models.Order{
		UserID:            req.UserID,
		TotalAmount:       total,
		Status:            models.OrderStatusPending,
		ShippingFirstName: strings.TrimSpace(req.Shipping.FirstName),
		ShippingLastName:  strings.TrimSpace(req.Shipping.LastName),
		ShippingAddress:   strings.TrimSpace(req.Shipping.Address),
		CardLast4:         req.Payment.Last4(),
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := s.orders.AddItem(ctx, &items[i]); err != nil {
				return err
			}
			if err := s.products.DecrementStock(ctx, items[i].ProductID, items[i].Quantity); err != nil {
				if errors.Is(err, repositories.ErrInsufficientStock) {
					return outOfStock(products[items[i].ProductID], items[i].Quantity)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if appErr, ok := apperror.As(err); ok {
			return nil, appErr
		}
		return nil, apperror.Internal("failed to place order", err)
	}
	order.Items = items

	if err := s.carts.Delete(ctx, req.SessionID); err != nil {
		s.logger.Error("failed to clear cart after checkout",
			zap.Uint("order_id", order.ID),
			zap.String("session_id", req.SessionID),
			zap.Error(err))
	}
	s.publish(ctx, EventOrderCreated, order)

	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", order.UserID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)))
	return order, nil
}

// ListForUser returns the caller's own orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to list orders", err)
	}
	return orders, nil
}

// ListAll returns every order, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list orders", err)
	}
	return orders, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, id uint, caller Caller) (*models.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, apperror.Forbidden("you do not have access to this order")
	}
	return order, nil
}

// UpdateStatus sets the order status. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperror.Validation("Invalid order status", map[string]string{
			"status": "must be one of pending, processing, shipped, delivered, cancelled",
		})
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("order %d not found", id)
		}
		return nil, apperror.Internal("failed to update order status", err)
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOrderStatusUpdated, order)
	return order, nil
}

func (s *OrderService) getOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("order %d not found", id)
		}
		return nil, apperror.Internal("failed to load order", err)
	}
	return order, nil
}

// resolveProducts reads every cart product in one batch. A product that is
// unknown or inactive fails the whole checkout.
func (s *OrderService) resolveProducts(ctx context.Context, lines []models.CartLine) (map[uint]models.Product, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal("failed to load products", err)
	}

	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if p, ok := byID[id]; !ok || !p.Active {
			return nil, apperror.NotFound("product %d not found", id)
		}
	}
	return byID, nil
}

func (s *OrderService) publish(ctx context.Context, routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, newOrderEvent(order, s.now().UTC())); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.Uint("order_id", order.ID),
			zap.Error(err))
	}
}

func outOfStock(product models.Product, requested int) error {
	return apperror.OutOfStock("insufficient stock for %s: requested %d, available %d",
		product.Name, requested, product.Stock)
}
