// Package pricing computes cart totals, tax and loyalty-coin discounts.
package pricing

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat GST rate applied to the cart subtotal.
var TaxRate = decimal.RequireFromString("0.18")

type Result struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax_amount"`
	CoinDiscount decimal.Decimal `json:"coin_discount"`
	CoinsUsed    int64           `json:"coins_used"`
	Total        decimal.Decimal `json:"total"`
}

// Compute prices the cart. One coin is worth one rupee of discount, and the
// discount never exceeds the available balance or the whole-rupee part of
// subtotal+tax. An empty cart prices to zero and drops any redemption.
func Compute(lines []model.CartLine, redeem bool, coinsToUse, availableCoins int64) Result {
	res := Result{
		Subtotal:     decimal.Zero,
		Tax:          decimal.Zero,
		CoinDiscount: decimal.Zero,
		Total:        decimal.Zero,
	}
	if len(lines) == 0 {
		return res
	}

	for _, line := range lines {
		res.Subtotal = res.Subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}
	res.Tax = res.Subtotal.Mul(TaxRate).Round(2)
	gross := res.Subtotal.Add(res.Tax)

	if redeem {
		res.CoinsUsed = clamp(coinsToUse, 0, min(availableCoins, gross.Floor().IntPart()))
	}
	res.CoinDiscount = decimal.NewFromInt(res.CoinsUsed)

	res.Total = gross.Sub(res.CoinDiscount)
	if res.Total.IsNegative() {
		res.Total = decimal.Zero
	}
	return res
}

func clamp(v, lo, hi int64) int64 {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
