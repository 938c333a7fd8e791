package engine

import (
	"encoding/hex"
	"fmt"
)

// SeedSize is the width of a randomness seed in bytes.
const SeedSize = 32

// ScheduleLen is the number of level-change thresholds derived per session.
const ScheduleLen = 5

// Seed is a fixed-width randomness value delivered by the oracle.
type Seed [SeedSize]byte

// ParseSeed decodes a 64-character hex string into a Seed.
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("invalid seed encoding: %w", err)
	}
	if len(raw) != SeedSize {
		return seed, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

// String returns the hex encoding of the seed.
func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// IsZero reports whether the seed is the all-zero value.
func (s Seed) IsZero() bool {
	for _, b := range s {
		if b != 0 {
			return false
		}
	}
	return true
}

// Threshold is a single level-change point: when the player's score reaches
// Score, the session's difficulty switches to Difficulty.
type Threshold struct {
	Score      uint64 `json:"score"`
	Difficulty int    `json:"difficulty"`
}

// Schedule is the ordered list of thresholds for one session.
type Schedule [ScheduleLen]Threshold
