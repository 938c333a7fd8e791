package session

import (
	"fmt"
	"strings"

	"github.com/sealrush/sealrush-go/internal/reward"
)

// Tier is a session's pricing and reward class.
type Tier int

const (
	TierFree Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
)

var tierNames = map[Tier]string{
	TierFree:     "FREE",
	TierBronze:   "BRONZE",
	TierSilver:   "SILVER",
	TierGold:     "GOLD",
	TierPlatinum: "PLATINUM",
}

// TierConfig fixes a tier's entry cost and base multiplier.
type TierConfig struct {
	EntryCost    reward.Amount
	MultiplierBP int64
}

// Basis points: 100 = 1.0x. Costs are micro-tokens.
var tierConfigs = map[Tier]TierConfig{
	TierFree:     {EntryCost: 0, MultiplierBP: 100},
	TierBronze:   {EntryCost: 1_000_000, MultiplierBP: 125},
	TierSilver:   {EntryCost: 2_500_000, MultiplierBP: 150},
	TierGold:     {EntryCost: 5_000_000, MultiplierBP: 200},
	TierPlatinum: {EntryCost: 10_000_000, MultiplierBP: 300},
}

// String returns the canonical tier name.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TIER(%d)", int(t))
}

// Config returns the tier's pricing configuration.
func (t Tier) Config() (TierConfig, bool) {
	cfg, ok := tierConfigs[t]
	return cfg, ok
}

// ParseTier resolves a tier name, case-insensitively.
func ParseTier(name string) (Tier, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for tier, n := range tierNames {
		if n == upper {
			return tier, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}
