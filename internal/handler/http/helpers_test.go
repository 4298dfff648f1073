package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/auth"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/event"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/webhook"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/health"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/httputil"
	pkgkafka "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/kafka"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/logger"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (bool, error) {
	args := m.Called(ctx, cart, expectedVersion)
	if args.Bool(0) {
		cart.Version = expectedVersion + 1
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockCartRepository) RemoveCheckedOut(ctx context.Context, userID string, ordered map[string]int) error {
	args := m.Called(ctx, userID, ordered)
	return args.Error(0)
}

type mockCouponRepository struct {
	mock.Mock
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) GetActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockCouponRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCouponRepository) ReserveUsage(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockCouponRepository) ReleaseUsage(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateState(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// ============================================================================
// Test server
// ============================================================================

const (
	customerID = "0b8e4f5e-2d7c-4a0e-9a51-6a3f1c2d9e10"
	adminID    = "5c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f"

	productID = "7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c2d"
	variantID = "1f2e3d4c-5b6a-4798-8a7b-6c5d4e3f2a1b"
	itemID    = "9d8c7b6a-5f4e-4d3c-b2a1-0f9e8d7c6b5a"
	couponID  = "3c4d5e6f-7a8b-4c9d-a0e1-f2a3b4c5d6e7"
	orderID   = "e1d2c3b4-a5f6-4e7d-8c9b-0a1f2e3d4c5b"

	jwtSecret     = "handler-test-secret"
	webhookSecret = "handler-webhook-secret"
)

type testServer struct {
	handler  http.Handler
	products *mockProductRepository
	carts    *mockCartRepository
	coupons  *mockCouponRepository
	orders   *mockOrderRepository
	tokens   *auth.JWTManager
	verifier *webhook.Verifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		products: new(mockProductRepository),
		carts:    new(mockCartRepository),
		coupons:  new(mockCouponRepository),
		orders:   new(mockOrderRepository),
		tokens:   auth.NewJWTManager(jwtSecret, time.Hour),
		verifier: webhook.NewVerifier(webhookSecret, 5*time.Minute),
	}

	log := logger.Discard()
	producer := event.NewProducer(pkgkafka.NopPublisher{}, log)
	coupons := service.NewCouponService(ts.coupons, producer, log)

	svc := Services{
		Catalog: service.NewCatalogService(ts.products, log),
		Cart:    service.NewCartService(ts.carts, ts.products, coupons, producer, log),
		Coupons: coupons,
		Orders: service.NewOrderService(
			ts.orders, ts.carts, ts.coupons, ts.products,
			database.NoopTransactor{},
			producer,
			log,
			service.PaymentConfig{Method: "DemoGateway", GatewayURL: "https://pay.example.com/checkout"},
		),
	}

	ts.handler = NewRouter(t.Context(), svc, health.NewHandler(), log, Options{
		Tokens:         ts.tokens.Validator(),
		Webhook:        webhook.Verify(ts.verifier, webhook.NewMemoryReplayGuard(time.Hour), log),
		CORS:           middleware.DefaultCORSConfig(),
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		PprofCIDRs:     []string{"127.0.0.1/32"},
	})
	return ts
}

func (ts *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := ts.tokens.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

// do sends a request as the given user. An empty userID sends no token.
func (ts *testServer) do(t *testing.T, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, userID, role))
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) asCustomer(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	return ts.do(t, method, path, customerID, auth.RoleCustomer, body)
}

func (ts *testServer) asAdmin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	return ts.do(t, method, path, adminID, auth.RoleAdmin, body)
}

// decodeResponse reads the response body into the standard envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData decodes the envelope's data field into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) httputil.Response {
	t.Helper()
	var raw struct {
		httputil.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	require.NoError(t, json.Unmarshal(raw.Data, dst))
	return raw.Response
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:       productID,
		Name:     "Linen Shirt",
		Category: "apparel",
		Images:   []string{},
		Variants: []domain.Variant{
			{ID: variantID, Size: "M", Color: "white", Price: dec("50"), Stock: 4},
		},
	}
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		ID:     "cart-1",
		UserID: customerID,
		Items: []domain.CartItem{
			{ID: itemID, ProductID: productID, VariantID: variantID, Quantity: 2},
		},
		Version: 1,
	}
}

func sampleCoupon() *domain.Coupon {
	now := time.Now().UTC()
	return &domain.Coupon{
		ID:            couponID,
		Code:          "SAVE10",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: dec("10"),
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		Active:        true,
	}
}

func sampleOrder(status string) *domain.Order {
	return &domain.Order{
		ID:             orderID,
		UserID:         customerID,
		Items:          []domain.OrderItem{{ProductID: productID, VariantID: variantID, Quantity: 2, Price: dec("50")}},
		PaymentStatus:  domain.PaymentStatusPending,
		OrderStatus:    status,
		PaymentMethod:  "DemoGateway",
		Subtotal:       dec("100"),
		DiscountAmount: decimal.Zero,
		TotalAmount:    dec("100"),
	}
}

func newRawRequest(t *testing.T, ts *testServer, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+ts.token(t, customerID, auth.RoleCustomer))
	return req
}

func serve(ts *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
