package reward

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCoinsEarned(t *testing.T) {
	cases := map[string]int64{
		"0":       0,
		"-10":     0,
		"99.99":   0,
		"100":     1,
		"1130":    11,
		"1180.00": 11,
		"1199.99": 11,
		"1200":    12,
	}
	for total, want := range cases {
		assert.Equal(t, want, CoinsEarned(decimal.RequireFromString(total)), total)
	}
}

func TestApplyLedgerChange(t *testing.T) {
	assert.Equal(t, int64(35), ApplyLedgerChange(74, 11, 50))
	assert.Equal(t, int64(85), ApplyLedgerChange(74, 11, 0))
	assert.Equal(t, int64(0), ApplyLedgerChange(10, 0, 50))
	assert.Equal(t, int64(0), ApplyLedgerChange(0, 0, 0))
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierBronze, TierFor(0))
	assert.Equal(t, TierBronze, TierFor(499))
	assert.Equal(t, TierSilver, TierFor(500))
	assert.Equal(t, TierGold, TierFor(2000))
	assert.Equal(t, TierPlatinum, TierFor(9000))
}
