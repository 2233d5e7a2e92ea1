package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/dto"
	"storefront/internal/gateway"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/verifier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cr3t"

type stubRazorpay struct{}

func (stubRazorpay) CreateOrder(_ context.Context, req *model.RazorpayOrderRequest) (*model.RazorpayOrder, error) {
	return &model.RazorpayOrder{ID: "order_" + req.Receipt, Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"}, nil
}

type testServer struct {
	handler http.Handler
	auth    *middleware.Authenticator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := client.InitSqliteClient("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	productRepo := repository.NewProductRepository(db)
	require.NoError(t, productRepo.Seed(context.Background()))
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cartRepo := repository.NewCartRepository(db)
	effectRepo := repository.NewCommitEffectRepository(db)

	rzp := config.Razorpay{KeyID: "rzp_live_key", KeySecret: secret, MerchantName: "Storefront", Currency: "INR"}
	v, err := verifier.New(rzp, config.Environment{Name: "production"})
	require.NoError(t, err)

	relay := session.NewRelay()
	checkout := service.NewCheckoutService(
		rzp,
		cartRepo,
		userRepo,
		orderRepo,
		gateway.NewAdapter(stubRazorpay{}, cache.NewMemoryReceiptStore(time.Hour), v.Mode()),
		v,
		service.NewCommitSequencer(db, orderRepo, productRepo, userRepo, cartRepo, effectRepo),
		session.NewController(relay, time.Second, 5*time.Second),
		relay,
		cache.NewMemoryCheckoutLock(time.Minute),
	)

	auth := middleware.NewAuthenticator(config.JWT{Secret: "jwt", Issuer: "storefront", Audience: "storefront-api"})
	srv := NewServer(Services{
		Catalog:  service.NewCatalogService(productRepo),
		Cart:     service.NewCartService(db, cartRepo, productRepo, userRepo),
		Checkout: checkout,
		Order:    service.NewOrderService(orderRepo),
		User:     service.NewUserService(userRepo),
	}, auth)

	return &testServer{handler: srv.Handler(), auth: auth}
}

func (ts *testServer) token(t *testing.T, userID string, perms ...string) string {
	t.Helper()
	tok, err := ts.auth.Issue(userID, perms, time.Minute)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func shipping() model.ShippingDetails {
	return model.ShippingDetails{Name: "Asha Rao", Phone: "9876543210", Email: "asha@example.com", Address: "12 MG Road", Pincode: "560001"}
}

func TestCheckoutOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "u1")

	rec := ts.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Product](t, rec), 4)

	rec = ts.do(t, http.MethodPost, "/api/cart/items", tok, dto.Item{ProductID: "tee-classic", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/checkout", tok, dto.CheckoutRequest{Shipping: shipping()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decode[dto.CheckoutResponse](t, rec)
	// 998 + 179.64 tax
	assert.Equal(t, int64(117764), started.Options.Amount)
	assert.Equal(t, "production", started.Mode)

	events := "/api/checkout/" + started.GatewayOrderID + "/events"
	rec = ts.do(t, http.MethodPost, events, tok, dto.PaymentEventRequest{Event: "sdk_loaded"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	success := dto.PaymentEventRequest{
		Event: "success",
		PaymentVerificationRecord: model.PaymentVerificationRecord{
			OrderID:   started.GatewayOrderID,
			PaymentID: "pay_http",
			Signature: verifier.Sign(secret, started.GatewayOrderID, "pay_http"),
		},
	}
	require.Eventually(t, func() bool {
		return ts.do(t, http.MethodPost, events, tok, success).Code == http.StatusAccepted
	}, 2*time.Second, 10*time.Millisecond)

	var outcome dto.OutcomeResponse
	require.Eventually(t, func() bool {
		outcome = decode[dto.OutcomeResponse](t, ts.do(t, http.MethodGet, "/api/checkout/"+started.GatewayOrderID, tok, nil))
		return outcome.Status == "committed"
	}, 3*time.Second, 10*time.Millisecond)
	require.NotNil(t, outcome.Order)
	assert.Equal(t, int64(11), outcome.Order.CoinsEarned)

	coins := decode[dto.CoinsResponse](t, ts.do(t, http.MethodGet, "/api/me/coins", tok, nil))
	assert.Equal(t, int64(11), coins.Balance)
	assert.Equal(t, "bronze", coins.Tier)

	cart := decode[dto.CartResponse](t, ts.do(t, http.MethodGet, "/api/cart", tok, nil))
	assert.Empty(t, cart.Items)

	orders := decode[[]model.Order](t, ts.do(t, http.MethodGet, "/api/orders", tok, nil))
	require.Len(t, orders, 1)

	// other users cannot see the order or the attempt
	other := ts.token(t, "u2")
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/orders/"+orders[0].ID, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/checkout/"+started.GatewayOrderID, other, nil).Code)

	// fulfillment is permission gated
	path := "/api/admin/orders/" + orders[0].ID + "/status"
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPatch, path, tok, dto.UpdateStatusRequest{Status: "shipped"}).Code)
	admin := ts.token(t, "ops", "orders:read", "orders:write")
	rec = ts.do(t, http.MethodPatch, path, admin, dto.UpdateStatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(t, http.MethodPatch, path, admin, dto.UpdateStatusRequest{Status: "shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.OrderStatusShipped, decode[model.Order](t, rec).Status)

	listed := decode[[]model.Order](t, ts.do(t, http.MethodGet, "/api/admin/orders?status=shipped", admin, nil))
	assert.Len(t, listed, 1)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "u1")

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/cart/items", tok, dto.Item{ProductID: "mug-ceramic", Quantity: 1}).Code)
	rec := ts.do(t, http.MethodPost, "/api/checkout", tok, dto.CheckoutRequest{Shipping: shipping()})
	require.Equal(t, http.StatusCreated, rec.Code)
	started := decode[dto.CheckoutResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/payments/verify", tok, model.PaymentVerificationRecord{
		OrderID:   started.GatewayOrderID,
		PaymentID: "pay_1",
		Signature: verifier.Sign(secret, started.GatewayOrderID, "pay_2"),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "verification_failure", decode[dto.ErrorResponse](t, rec).Error)

	assert.Empty(t, decode[[]model.Order](t, ts.do(t, http.MethodGet, "/api/orders", tok, nil)))
}

func TestCheckoutValidationAndAuth(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/cart", "", nil).Code)

	tok := ts.token(t, "u1")
	rec := ts.do(t, http.MethodPost, "/api/checkout", tok, dto.CheckoutRequest{Shipping: shipping()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[dto.ErrorResponse](t, rec).Error)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/metrics", "", nil).Code)
}
