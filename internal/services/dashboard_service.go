package services

import (
	"context"

	"shoplab/internal/apperror"
	"shoplab/internal/models"
	"shoplab/internal/repositories"
)

// DashboardSummary is the aggregate view shown on the admin dashboard.
type DashboardSummary struct {
	Products repositories.ProductStats `json:"products"`
	Orders   repositories.OrderStats   `json:"orders"`
	Users    int64                     `json:"users"`
}

// DashboardService computes admin dashboard aggregates.
type DashboardService struct {
	products repositories.ProductRepository
	orders   repositories.OrderRepository
	users    repositories.UserRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(products repositories.ProductRepository, orders repositories.OrderRepository, users repositories.UserRepository) *DashboardService {
	return &DashboardService{products: products, orders: orders, users: users}
}

// Summary returns catalog, order and user counts.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	productStats, err := s.products.Stats(ctx, models.LowStockThreshold)
	if err != nil {
		return nil, apperror.Internal("failed to compute product stats", err)
	}
	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to compute order stats", err)
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to count users", err)
	}
	return &DashboardSummary{Products: productStats, Orders: orderStats, Users: userCount}, nil
}
