package services

import (
	"context"
	"time"

	"shoplab/internal/models"

	"github.com/shopspring/decimal"
)

// Routing keys of the order events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
)

// EventPublisher delivers domain events to downstream consumers. Delivery is
// best effort: a failed publish never fails the operation that caused it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	OrderID     uint               `json:"orderId"`
	UserID      uint               `json:"userId"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Items       []OrderEventItem   `json:"items,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// OrderEventItem is one purchased line of an order event.
type OrderEventItem struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

func newOrderEvent(order *models.Order, now time.Time) OrderEvent {
	event := OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  now,
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderEventItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return event
}
