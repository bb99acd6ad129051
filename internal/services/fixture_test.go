package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"shoplab/internal/config"
	"shoplab/internal/database"
	"shoplab/internal/models"
	"shoplab/internal/repositories"
	"shoplab/internal/services"
	"shoplab/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const validCard = "4111 1111 1111 1111"

type publishedEvent struct {
	RoutingKey string
	Payload    any
}

// recordingPublisher collects published events and can be told to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fixture struct {
	db        *gorm.DB
	products  *repositories.GORMProductRepository
	orders    *repositories.GORMOrderRepository
	users     *repositories.GORMUserRepository
	sessions  *repositories.GORMSessionRepository
	carts     *repositories.MemoryCartStore
	publisher *recordingPublisher

	cartService      *services.CartService
	orderService     *services.OrderService
	authService      *services.AuthService
	productService   *services.ProductService
	dashboardService *services.DashboardService
}

var testJWTConfig = config.JWTConfig{
	Secret:     "test-secret",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 7 * 24 * time.Hour,
}

// newFixture wires every service over a seeded in-memory database.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	require.NoError(t, database.Seed(context.Background(), db, zap.NewNop()))

	f := &fixture{
		db:        db,
		products:  repositories.NewGORMProductRepository(db),
		orders:    repositories.NewGORMOrderRepository(db),
		users:     repositories.NewGORMUserRepository(db),
		sessions:  repositories.NewGORMSessionRepository(db),
		carts:     repositories.NewMemoryCartStore(7 * 24 * time.Hour),
		publisher: &recordingPublisher{},
	}
	f.cartService = services.NewCartService(f.carts, f.products)
	f.orderService = services.NewOrderService(f.orders, f.products, f.carts,
		repositories.NewGORMTxManager(db), f.publisher, zap.NewNop())
	f.authService = services.NewAuthService(f.users, f.sessions, testJWTConfig, zap.NewNop())
	f.productService = services.NewProductService(f.products, nil)
	f.dashboardService = services.NewDashboardService(f.products, f.orders, f.users)
	return f
}

func (f *fixture) product(t *testing.T, slug string) *models.Product {
	t.Helper()
	p, err := f.products.GetBySlug(context.Background(), slug)
	require.NoError(t, err)
	return p
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

func checkoutRequest(sessionID string, userID uint) services.CheckoutRequest {
	return services.CheckoutRequest{
		SessionID: sessionID,
		UserID:    userID,
		Shipping: services.ShippingDetails{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Address:   "12 Analytical Row, London",
		},
		Payment: services.PaymentDetails{
			CardNumber:     validCard,
			ExpiryDate:     "12/29",
			CVV:            "123",
			CardholderName: "Ada Lovelace",
		},
	}
}
