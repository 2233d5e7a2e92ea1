package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/internal/verifier"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "s3cr3t"

type stubRazorpay struct {
	err error
}

func (s *stubRazorpay) CreateOrder(_ context.Context, req *model.RazorpayOrderRequest) (*model.RazorpayOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.RazorpayOrder{
		ID:       "order_" + req.Receipt,
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

type failingOrderRepo struct {
	repository.OrderRepository
}

func (failingOrderRepo) Create(context.Context, *gorm.DB, *model.Order) error {
	return errors.New("disk full")
}

type flakyProductRepo struct {
	repository.ProductRepository
	failures int
}

func (f *flakyProductRepo) DecrementStock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("lock wait timeout")
	}
	return f.ProductRepository.DecrementStock(ctx, tx, productID, quantity)
}

type fixture struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	effectRepo  repository.CommitEffectRepository
	gateway     *stubRazorpay
	checkout    CheckoutService
	opts        fixtureOptions
}

type fixtureOptions struct {
	keyID           string
	env             string
	failOrderCreate bool
	stockFailures   int
	modalTimeout    time.Duration
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	db, err := client.InitSqliteClient("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if opts.keyID == "" {
		opts.keyID = "rzp_live_key"
	}
	if opts.env == "" {
		opts.env = "production"
	}
	if opts.modalTimeout == 0 {
		opts.modalTimeout = 5 * time.Second
	}

	f := &fixture{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		userRepo:    repository.NewUserRepository(db),
		cartRepo:    repository.NewCartRepository(db),
		effectRepo:  repository.NewCommitEffectRepository(db),
		gateway:     &stubRazorpay{},
		opts:        opts,
	}
	f.restart(t)
	return f
}

// restart replaces the checkout service with a new one over the same
// database, dropping every attempt held in memory.
func (f *fixture) restart(t *testing.T) {
	t.Helper()
	commitOrders := f.orderRepo
	if f.opts.failOrderCreate {
		commitOrders = failingOrderRepo{f.orderRepo}
	}
	var products repository.ProductRepository = f.productRepo
	if f.opts.stockFailures > 0 {
		products = &flakyProductRepo{ProductRepository: f.productRepo, failures: f.opts.stockFailures}
		f.opts.stockFailures = 0
	}

	cfg := config.Razorpay{KeyID: f.opts.keyID, KeySecret: testSecret, MerchantName: "Storefront", Currency: "INR"}
	v, err := verifier.New(cfg, config.Environment{Name: f.opts.env})
	require.NoError(t, err)

	relay := session.NewRelay()
	f.checkout = NewCheckoutService(
		cfg,
		f.cartRepo,
		f.userRepo,
		f.orderRepo,
		gateway.NewAdapter(f.gateway, cache.NewMemoryReceiptStore(time.Hour), v.Mode()),
		v,
		NewCommitSequencer(f.db, commitOrders, products, f.userRepo, f.cartRepo, f.effectRepo),
		session.NewController(relay, time.Second, f.opts.modalTimeout),
		relay,
		cache.NewMemoryCheckoutLock(time.Minute),
	)
}

// seedCart puts a ₹1000 cart (2 × ₹500) for userID and gives them coins.
func (f *fixture) seedCart(t *testing.T, userID string, coins int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.db.Create(&model.Product{ID: "lamp", Name: "Desk Lamp", Category: "home", Price: decimal.NewFromInt(500), Stock: 2}).Error)
	require.NoError(t, f.db.Create(&model.User{ID: userID, Name: "Asha", Coins: coins}).Error)
	require.NoError(t, f.cartRepo.AddItem(ctx, userID, "lamp", 2))
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.productRepo.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) coins(t *testing.T, userID string) int64 {
	t.Helper()
	u, err := f.userRepo.Get(context.Background(), userID)
	require.NoError(t, err)
	return u.Coins
}

func validShipping() model.ShippingDetails {
	return model.ShippingDetails{
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Email:   "asha@example.com",
		Address: "12 MG Road, Bengaluru",
		Pincode: "560001",
	}
}

func signed(orderID, paymentID string) model.PaymentVerificationRecord {
	return model.PaymentVerificationRecord{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: verifier.Sign(testSecret, orderID, paymentID),
	}
}

func deliverWhenOpen(t *testing.T, svc CheckoutService, userID, orderID string, ev session.Event) {
	t.Helper()
	require.Eventually(t, func() bool {
		return svc.Deliver(context.Background(), userID, orderID, ev) == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func waitForStatus(t *testing.T, svc CheckoutService, userID, orderID string, want AttemptStatus) *Outcome {
	t.Helper()
	var out *Outcome
	require.Eventually(t, func() bool {
		var err error
		out, err = svc.Outcome(context.Background(), userID, orderID)
		return err == nil && out.Status == want
	}, 3*time.Second, 5*time.Millisecond)
	return out
}
