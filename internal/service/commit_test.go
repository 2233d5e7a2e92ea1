package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitInput(t *testing.T, f *fixture, userID, gatewayOrderID string, coins int64) CommitInput {
	t.Helper()
	lines, err := f.cartRepo.Lines(context.Background(), userID)
	require.NoError(t, err)
	return CommitInput{
		UserID:           userID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: "pay_" + gatewayOrderID,
		Lines:            lines,
		Pricing:          pricing.Compute(lines, coins > 0, coins, f.coins(t, userID)),
		Shipping:         validShipping(),
		Currency:         "INR",
	}
}

func TestCommit_RepeatIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	f.seedCart(t, "u1", 20)
	seq := NewCommitSequencer(f.db, f.orderRepo, f.productRepo, f.userRepo, f.cartRepo, f.effectRepo)

	in := commitInput(t, f, "u1", "order_f", 20)
	first, err := seq.Commit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.stock(t, "lamp"))
	// 1180 - 20 = 1160 -> 11 earned
	assert.Equal(t, int64(11), f.coins(t, "u1"))

	second, err := seq.Commit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(0), f.stock(t, "lamp"))
	assert.Equal(t, int64(11), f.coins(t, "u1"))

	orders, err := f.orderRepo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(2), orders[0].Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1160).Equal(orders[0].Total))
}

func TestCommit_OversellClampsStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	f.seedCart(t, "u1", 0)
	require.NoError(t, f.cartRepo.AddItem(ctx, "u1", "lamp", 3))
	seq := NewCommitSequencer(f.db, f.orderRepo, f.productRepo, f.userRepo, f.cartRepo, f.effectRepo)

	_, err := seq.Commit(ctx, commitInput(t, f, "u1", "order_over", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.stock(t, "lamp"))
}

func TestCommit_ResumesAfterEffectFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	f.seedCart(t, "u1", 0)
	products := &flakyProductRepo{ProductRepository: f.productRepo, failures: 1}
	seq := NewCommitSequencer(f.db, f.orderRepo, products, f.userRepo, f.cartRepo, f.effectRepo)
	in := commitInput(t, f, "u1", "order_r", 0)

	order, err := seq.Commit(ctx, in)
	require.ErrorIs(t, err, ErrApplyEffects)
	require.NotNil(t, order, "the order survives a failed effect")
	assert.Equal(t, int64(2), f.stock(t, "lamp"))
	assert.Equal(t, int64(0), f.coins(t, "u1"))

	again, err := seq.Commit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)
	assert.Equal(t, int64(0), f.stock(t, "lamp"))
	assert.Equal(t, int64(11), f.coins(t, "u1"))

	for _, effect := range []string{model.EffectStock, model.EffectCoins, model.EffectCart} {
		done, err := f.effectRepo.Exists(ctx, order.ID, effect)
		require.NoError(t, err)
		assert.True(t, done, effect)
	}
}

func TestCommit_PersistFailureAppliesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	f.seedCart(t, "u1", 10)
	seq := NewCommitSequencer(f.db, failingOrderRepo{f.orderRepo}, f.productRepo, f.userRepo, f.cartRepo, f.effectRepo)

	order, err := seq.Commit(ctx, commitInput(t, f, "u1", "order_e", 10))
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrPersistOrder)
	assert.Equal(t, int64(2), f.stock(t, "lamp"))
	assert.Equal(t, int64(10), f.coins(t, "u1"))
}

func TestCommit_KeepsItemsAddedDuringPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	f.seedCart(t, "u1", 0)
	require.NoError(t, f.db.Create(&model.Product{ID: "rug", Name: "Jute Rug", Category: "home", Price: decimal.NewFromInt(900), Stock: 4}).Error)
	seq := NewCommitSequencer(f.db, f.orderRepo, f.productRepo, f.userRepo, f.cartRepo, f.effectRepo)
	in := commitInput(t, f, "u1", "order_k", 0)

	// added while the payment was being collected
	require.NoError(t, f.cartRepo.AddItem(ctx, "u1", "lamp", 1))
	require.NoError(t, f.cartRepo.AddItem(ctx, "u1", "rug", 1))

	_, err := seq.Commit(ctx, in)
	require.NoError(t, err)

	lines, err := f.cartRepo.Lines(ctx, "u1")
	require.NoError(t, err)
	left := map[string]int64{}
	for _, l := range lines {
		left[l.ProductID] = l.Quantity
	}
	assert.Equal(t, map[string]int64{"lamp": 1, "rug": 1}, left)
}
