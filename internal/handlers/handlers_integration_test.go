package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shoplab/internal/config"
	"shoplab/internal/database"
	"shoplab/internal/handlers"
	"shoplab/internal/middleware"
	"shoplab/internal/models"
	"shoplab/internal/repositories"
	"shoplab/internal/services"
	"shoplab/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testCookie = config.CookieConfig{
	Name:     "refreshToken",
	Path:     "/api/v1/auth",
	SameSite: "Strict",
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *handlers.ErrorInfo `json:"error"`
}

type testApp struct {
	app      *fiber.App
	products *repositories.GORMProductRepository
}

// setupApp wires every route over a seeded in-memory database and an
// in-memory cart store.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.NewTestDB(t)
	require.NoError(t, database.Seed(context.Background(), db, zap.NewNop()))

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	carts := repositories.NewMemoryCartStore(time.Hour)

	svc := handlers.Services{
		Products: services.NewProductService(productRepo, nil),
		Carts:    services.NewCartService(carts, productRepo),
		Orders: services.NewOrderService(orderRepo, productRepo, carts,
			repositories.NewGORMTxManager(db), nil, zap.NewNop()),
		Auth: services.NewAuthService(userRepo, repositories.NewGORMSessionRepository(db), config.JWTConfig{
			Secret:     "test_jwt_secret",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		}, zap.NewNop()),
		Dashboard: services.NewDashboardService(productRepo, orderRepo, userRepo),
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zap.NewNop(), false)})
	handlers.RegisterRoutes(app.Group("/api/v1"), svc, testCookie)

	return &testApp{app: app, products: productRepo}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderAuthorization, "Bearer "+token) }
}

func withSession(id string) requestOption {
	return func(r *http.Request) { r.Header.Set(middleware.HeaderSessionID, id) }
}

func withCookie(cookie *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(cookie) }
}

func (a *testApp) do(t *testing.T, method, path string, body any, opts ...requestOption) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (a *testApp) productID(t *testing.T, slug string) uint {
	t.Helper()
	p, err := a.products.GetBySlug(context.Background(), slug)
	require.NoError(t, err)
	return p.ID
}

type loginData struct {
	AccessToken string      `json:"accessToken"`
	User        models.User `json:"user"`
}

func (a *testApp) login(t *testing.T, username, password string) (string, *http.Cookie) {
	t.Helper()
	resp, env := a.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data loginData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)

	var refresh *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == testCookie.Name {
			refresh = c
		}
	}
	require.NotNil(t, refresh, "login must set the refresh cookie")
	return data.AccessToken, refresh
}

func checkoutBody(cardNumber string) map[string]any {
	return map[string]any{
		"shipping": map[string]string{
			"firstName": "Grace",
			"lastName":  "Hopper",
			"address":   "1 Harbor Way",
		},
		"payment": map[string]string{
			"cardNumber":     cardNumber,
			"expiryDate":     "11/28",
			"cvv":            "321",
			"cardholderName": "Grace Hopper",
		},
	}
}

func TestProductEndpoints(t *testing.T) {
	a := setupApp(t)

	resp, env := a.do(t, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	var products []models.Product
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Len(t, products, 6)
	for _, p := range products {
		assert.True(t, p.Active)
	}

	resp, env = a.do(t, http.MethodGet, "/api/v1/products?search=mouse", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "wireless-mouse", products[0].Slug)

	resp, env = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", a.productID(t, "ultrabook-14")), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var product models.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "Ultrabook 14", product.Name)
	assert.Equal(t, "1199.99", product.Price.StringFixed(2))

	// Inactive products are hidden from the public catalog.
	resp, env = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", a.productID(t, "retro-trackball")), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	resp, env = a.do(t, http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "id")
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	a := setupApp(t)

	resp, env := a.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestAuthLoginRefreshLogout(t *testing.T) {
	a := setupApp(t)

	token, refresh := a.login(t, "standard_user", "standard123")
	assert.True(t, refresh.HttpOnly)
	assert.NotEmpty(t, refresh.Value)

	resp, env := a.do(t, http.MethodGet, "/api/v1/auth/me", nil, withToken(token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "standard_user", me.Username)
	assert.Equal(t, models.RoleStandard, me.Role)
	assert.NotContains(t, string(env.Data), "password")

	resp, env = a.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withCookie(refresh))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed loginData
	require.NoError(t, json.Unmarshal(env.Data, &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)

	resp, env = a.do(t, http.MethodPost, "/api/v1/auth/logout", nil, withCookie(refresh))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == testCookie.Name && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must clear the refresh cookie")

	resp, env = a.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withCookie(refresh))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestAuthLoginFailures(t *testing.T) {
	a := setupApp(t)

	resp, env := a.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "standard_user", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	resp, env = a.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "locked_user", "password": "locked123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ACCOUNT_LOCKED", env.Error.Code)

	resp, env = a.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "password")

	resp, env = a.do(t, http.MethodPost, "/api/v1/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	resp, env = a.do(t, http.MethodGet, "/api/v1/auth/me", nil, withToken("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestCartRequiresSessionHeader(t *testing.T) {
	a := setupApp(t)

	resp, env := a.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, middleware.HeaderSessionID)
}

func TestCartEndpoints(t *testing.T) {
	a := setupApp(t)
	session := withSession("cart-session-1")
	mouse := a.productID(t, "wireless-mouse")
	webcam := a.productID(t, "webcam-1080p")

	resp, env := a.do(t, http.MethodGet, "/api/v1/cart", nil, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cart models.CartView
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)

	resp, env = a.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"productId": mouse, "quantity": 2}, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var added models.CartMutation
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.Equal(t, 2, added.Quantity)
	assert.Equal(t, 2, added.TotalItems)

	resp, env = a.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"productId": webcam, "quantity": 1}, session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "OUT_OF_STOCK", env.Error.Code)

	resp, env = a.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"productId": mouse, "quantity": 0}, session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	resp, env = a.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"productId": mouse, "quantity": int64(math.MaxInt64)}, session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "quantity")

	resp, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/cart/items/%d", mouse),
		map[string]any{"quantity": 3}, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = a.do(t, http.MethodGet, "/api/v1/cart", nil, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.TotalItems)
	assert.Equal(t, "75.00", cart.TotalAmount.StringFixed(2))
	assert.Equal(t, "Wireless Mouse", cart.Items[0].Product.Name)

	// Another session sees its own cart.
	_, env = a.do(t, http.MethodGet, "/api/v1/cart", nil, withSession("cart-session-2"))
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)

	resp, _ = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/cart/items/%d", mouse), nil, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/cart/items/%d", mouse), nil, session)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	resp, _ = a.do(t, http.MethodDelete, "/api/v1/cart", nil, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = a.do(t, http.MethodDelete, "/api/v1/cart", nil, session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	a := setupApp(t)
	token, _ := a.login(t, "standard_user", "standard123")
	session := withSession("checkout-session")
	keyboard := a.productID(t, "mechanical-keyboard")

	// Orders require authentication.
	resp, env := a.do(t, http.MethodPost, "/api/v1/orders", checkoutBody("4111111111111111"), session)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	resp, env = a.do(t, http.MethodPost, "/api/v1/orders", checkoutBody("4111111111111111"),
		withToken(token), session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CART_EMPTY", env.Error.Code)

	resp, _ = a.do(t, http.MethodPost, "/api/v1/cart/items",
		map[string]any{"productId": keyboard, "quantity": 2}, session)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = a.do(t, http.MethodPost, "/api/v1/orders", checkoutBody("4111111111111112"),
		withToken(token), session)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "cardNumber")

	resp, env = a.do(t, http.MethodPost, "/api/v1/orders", checkoutBody("4111-1111-1111-1111"),
		withToken(token), session)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "150.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "1111", order.CardLast4)
	require.Len(t, order.Items, 1)
	assert.Equal(t, keyboard, order.Items[0].ProductID)
	assert.NotContains(t, string(env.Data), "cardNumber")

	product, err := a.products.GetByID(context.Background(), keyboard)
	require.NoError(t, err)
	assert.Equal(t, 23, product.Stock)

	// The cart is cleared after a successful checkout.
	_, env = a.do(t, http.MethodGet, "/api/v1/cart", nil, session)
	var cart models.CartView
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)

	resp, env = a.do(t, http.MethodGet, "/api/v1/orders", nil, withToken(token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	resp, _ = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil, withToken(token))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Another standard user may not read it; an admin may.
	adminToken, _ := a.login(t, "admin", "admin123")
	resp, _ = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil, withToken(adminToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminGuard(t *testing.T) {
	a := setupApp(t)

	resp, env := a.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	token, _ := a.login(t, "standard_user", "standard123")
	resp, env = a.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil, withToken(token))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	adminToken, _ := a.login(t, "admin", "admin123")
	resp, env = a.do(t, http.MethodGet, "/api/v1/admin/dashboard", nil, withToken(adminToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var summary services.DashboardSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, int64(7), summary.Products.Total)
	assert.Equal(t, int64(3), summary.Users)
}

func TestAdminProductAndUserManagement(t *testing.T) {
	a := setupApp(t)
	adminToken, _ := a.login(t, "admin", "admin123")
	auth := withToken(adminToken)

	resp, env := a.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":        "Standing Desk",
		"description": "Electric sit-stand desk",
		"price":       "499.00",
		"stock":       4,
	}, auth)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "standing-desk", created.Slug)
	assert.True(t, created.Active)

	resp, env = a.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":  "Standing Desk",
		"price": "10.00",
		"stock": 1,
	}, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "slug")

	resp, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/products/%d/stock", created.ID),
		map[string]any{"stock": 12}, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = a.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/products/%d/stock", created.ID),
		map[string]any{"stock": -1}, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	resp, _ = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/products/%d", created.ID), nil, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/products/%d", created.ID), nil, auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.False(t, fetched.Active)
	assert.Equal(t, 12, fetched.Stock)

	resp, env = a.do(t, http.MethodPost, "/api/v1/admin/users", map[string]any{
		"username": "qa_engineer",
		"password": "s3cure-pass",
	}, auth)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, models.RoleStandard, user.Role)

	a.login(t, "qa_engineer", "s3cure-pass")
}
