package pricing

import (
	"testing"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price string, qty int64) model.CartLine {
	return model.CartLine{
		ProductID: "sku-" + price,
		Name:      "item",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCompute_NoCoins(t *testing.T) {
	res := Compute([]model.CartLine{line("400", 2), line("200", 1)}, false, 0, 74)

	assertDec(t, "1000", res.Subtotal)
	assertDec(t, "180", res.Tax)
	assertDec(t, "0", res.CoinDiscount)
	assertDec(t, "1180", res.Total)
	assert.Equal(t, int64(0), res.CoinsUsed)
}

func TestCompute_RedeemCoins(t *testing.T) {
	res := Compute([]model.CartLine{line("1000", 1)}, true, 50, 74)

	assertDec(t, "50", res.CoinDiscount)
	assertDec(t, "1130", res.Total)
	assert.Equal(t, int64(50), res.CoinsUsed)
}

func TestCompute_RedeemIgnoredWhenNotRequested(t *testing.T) {
	res := Compute([]model.CartLine{line("1000", 1)}, false, 50, 74)

	assert.Equal(t, int64(0), res.CoinsUsed)
	assertDec(t, "1180", res.Total)
}

func TestCompute_CoinsClampedToBalance(t *testing.T) {
	res := Compute([]model.CartLine{line("1000", 1)}, true, 500, 74)

	assert.Equal(t, int64(74), res.CoinsUsed)
	assertDec(t, "1106", res.Total)
}

func TestCompute_CoinsClampedToWholeRupees(t *testing.T) {
	// 10.50 + 1.89 tax = 12.39; at most 12 coins may be used.
	res := Compute([]model.CartLine{line("10.50", 1)}, true, 100, 100)

	assertDec(t, "1.89", res.Tax)
	assert.Equal(t, int64(12), res.CoinsUsed)
	assertDec(t, "0.39", res.Total)
}

func TestCompute_NegativeCoinRequest(t *testing.T) {
	res := Compute([]model.CartLine{line("100", 1)}, true, -20, 50)

	assert.Equal(t, int64(0), res.CoinsUsed)
	assertDec(t, "118", res.Total)
}

func TestCompute_EmptyCart(t *testing.T) {
	res := Compute(nil, true, 50, 74)

	assertDec(t, "0", res.Subtotal)
	assertDec(t, "0", res.Tax)
	assertDec(t, "0", res.Total)
	assert.Equal(t, int64(0), res.CoinsUsed)
}

func TestCompute_TotalInvariant(t *testing.T) {
	carts := [][]model.CartLine{
		{line("1", 1)},
		{line("99.99", 3)},
		{line("1000", 1), line("0.01", 7)},
		{line("15.25", 4), line("3.10", 2)},
	}
	for _, cart := range carts {
		for _, available := range []int64{0, 1, 10, 100, 10000} {
			for _, want := range []int64{0, 1, 5, 50, 5000} {
				res := Compute(cart, true, want, available)
				gross := res.Subtotal.Add(res.Tax)

				assert.False(t, res.Total.IsNegative())
				assert.LessOrEqual(t, res.CoinsUsed, available)
				assert.LessOrEqual(t, res.CoinsUsed, gross.Floor().IntPart())

				expected := gross.Sub(res.CoinDiscount)
				if expected.IsNegative() {
					expected = decimal.Zero
				}
				assert.True(t, expected.Equal(res.Total))
			}
		}
	}
}
