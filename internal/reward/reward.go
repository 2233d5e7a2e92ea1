// Package reward implements the loyalty-coin ledger arithmetic.
package reward

import "github.com/shopspring/decimal"

// RupeesPerCoin is the spend needed to earn one coin.
const RupeesPerCoin = 100

// CoinsEarned returns floor(total / RupeesPerCoin). Tier multipliers are not
// applied; every tier earns at the base rate.
func CoinsEarned(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Div(decimal.NewFromInt(RupeesPerCoin)).Floor().IntPart()
}

// ApplyLedgerChange returns the new balance, floored at zero.
func ApplyLedgerChange(balance, earned, used int64) int64 {
	return max(0, balance+earned-used)
}

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

var tierThresholds = []struct {
	tier Tier
	min  int64
}{
	{TierPlatinum, 5000},
	{TierGold, 2000},
	{TierSilver, 500},
	{TierBronze, 0},
}

// TierFor maps lifetime earned coins to a display tier.
// TODO: apply per-tier earn multipliers once their rates are agreed with marketing.
func TierFor(lifetimeCoins int64) Tier {
	for _, t := range tierThresholds {
		if lifetimeCoins >= t.min {
			return t.tier
		}
	}
	return TierBronze
}
