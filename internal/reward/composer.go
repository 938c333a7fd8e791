// Package reward implements the reward composition rules: converting game
// points into a base token amount and stacking the independent multiplier
// layers on top of it. Everything here is pure integer arithmetic so that a
// payout can be recomputed bit-for-bit by anyone auditing a claim.
package reward

import (
	"github.com/shopspring/decimal"
)

// Amount is a token quantity in micro-tokens (6 decimal places).
type Amount int64

const (
	// Scale is the number of micro-tokens per whole token.
	Scale = 1_000_000

	// MinClaimPoints is the minimum point total that earns any reward.
	MinClaimPoints = 10

	// rateNum/rateDen: one whole token per 1000 points.
	rateNum = 1
	rateDen = 1000

	// sealedBonusBP is the multiplier applied when a session was sealed:
	// 150 basis points of 100, i.e. a flat 50% bonus.
	sealedBonusBP = 150

	// levelBonusPerLevel and levelBonusCap bound the player-level layer:
	// +2% per level, capped at +100%.
	levelBonusPerLevel = 2
	levelBonusCap      = 100

	// MaxLevel is the progression ceiling.
	MaxLevel = 100
)

// BaseReward converts points into micro-tokens. Points below the claim
// minimum earn nothing; callers that want an error instead of zero must
// validate before composing.
func BaseReward(points uint64) Amount {
	if points < MinClaimPoints {
		return 0
	}
	return Amount(points * rateNum * Scale / rateDen)
}

// TotalMultiplier stacks the multiplier layers in their fixed order:
// session tier first, then the sealed bonus, then the level bonus. The
// order is part of the payout contract: integer division makes the chain
// non-commutative, so reproducibility requires one canonical ordering.
func TotalMultiplier(sessionBP int64, sealed bool, playerLevel int) int64 {
	m := sessionBP
	if sealed {
		m = m * sealedBonusBP / 100
	}
	bonus := int64(playerLevel) * levelBonusPerLevel
	if bonus > levelBonusCap {
		bonus = levelBonusCap
	}
	return m * (100 + bonus) / 100
}

// FinalReward applies a basis-point multiplier to a base amount.
func FinalReward(base Amount, totalMultiplierBP int64) Amount {
	return Amount(int64(base) * totalMultiplierBP / 100)
}

// Compose runs the full pipeline for a claim.
func Compose(points uint64, sessionBP int64, sealed bool, playerLevel int) Amount {
	return FinalReward(BaseReward(points), TotalMultiplier(sessionBP, sealed, playerLevel))
}

// Tokens renders an amount as a decimal token quantity for API responses
// and logs. The core never does arithmetic on this representation.
func (a Amount) Tokens() decimal.Decimal {
	return decimal.NewFromInt(int64(a)).Shift(-6)
}

// String formats the amount as a token string, e.g. "3.6".
func (a Amount) String() string {
	return a.Tokens().String()
}
