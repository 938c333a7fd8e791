// Package progression owns per-player score/XP/level/achievement state and
// the three ranked leaderboards. XP and level math is pure and integer-only
// so a profile can be audited from its game history.
package progression

import (
	"errors"
	"time"
)

var (
	ErrUsernameTaken     = errors.New("username already taken")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidMultiplier = errors.New("multiplier outside session range")
)

// MaxLevel is the progression ceiling.
const MaxLevel = 100

// Bounds on the session multiplier a recorded game may carry, in basis
// points. The floor is the free tier's bare 1x, the ceiling the top paid
// tier.
const (
	MinGameMultiplierBP = 100
	MaxGameMultiplierBP = 300
)

// Profile is one player's cumulative progression record.
type Profile struct {
	Player       string    `json:"player"`
	Username     string    `json:"username"`
	TotalScore   uint64    `json:"total_score"`
	BestScore    uint64    `json:"best_score"`
	GamesPlayed  uint64    `json:"games_played"`
	Tokens       uint64    `json:"tokens_collected"`
	TotalClaimed int64     `json:"total_claimed"`
	Level        int       `json:"level"`
	XP           uint64    `json:"xp"`
	CreatedAt    time.Time `json:"created_at"`
}

// GameXP computes the experience earned by one game result. The layers
// mirror the reward multiplier stack: a share of score, a token bounty, a
// session-multiplier cut, and a flat 20% sealed bonus on the score share.
func GameXP(score, tokens uint64, multiplierBP int64, sealed bool) uint64 {
	// A negative multiplier must not wrap the uint64 conversion.
	if multiplierBP < 0 {
		multiplierBP = 0
	}
	base := score / 10
	xp := base + tokens*5 + base*uint64(multiplierBP)/100
	if sealed {
		xp += base * 20 / 100
	}
	return xp
}

// LevelFromXP maps experience onto [1, MaxLevel]:
// min(100, max(1, floor(sqrt(xp/1000)) + 1)). Non-decreasing in xp, which
// together with monotone XP makes level itself monotone.
func LevelFromXP(xp uint64) int {
	level := isqrt(xp/1000) + 1
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return level
}

// isqrt is the integer square root, exact for the full uint64 range.
func isqrt(n uint64) int {
	if n == 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return int(x)
}
