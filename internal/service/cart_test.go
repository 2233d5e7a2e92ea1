package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	f.seedCart(t, "u1", 74)
	svc := NewCartService(f.db, f.cartRepo, f.productRepo, f.userRepo)

	view, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1180).Equal(view.Pricing.Total))
	assert.Equal(t, int64(74), view.Coins)

	view, err = svc.Price(ctx, "u1", true, 50)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1130).Equal(view.Pricing.Total))

	assert.ErrorIs(t, svc.AddItem(ctx, "u1", "lamp", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, svc.AddItem(ctx, "u1", "ghost", 1), ErrProductNotFound)
	assert.ErrorIs(t, svc.SetQuantity(ctx, "u1", "ghost", 2), ErrProductNotFound)

	require.NoError(t, svc.SetQuantity(ctx, "u1", "lamp", 1))
	view, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(590).Equal(view.Pricing.Total))

	require.NoError(t, svc.SetQuantity(ctx, "u1", "lamp", 0))
	view, err = svc.Price(ctx, "u1", true, 50)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Pricing.Total.IsZero())
	assert.Equal(t, int64(0), view.Pricing.CoinsUsed)

	view, err = svc.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.Coins)
}
