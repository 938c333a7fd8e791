// Package session owns the per-player play-session lifecycle: creation
// against a paid tier, seed fulfillment, threshold-driven level changes, and
// explicit ending. All mutations are serialized behind one lock; waiting on
// the oracle is represented as state, never as a blocked caller.
package session

import (
	"errors"
	"time"

	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/reward"
)

// Sentinel errors surfaced to callers. The API layer maps these onto its
// error envelope.
var (
	ErrSessionAlreadyActive = errors.New("player already has an active session")
	ErrInsufficientEntryFee = errors.New("payment below tier entry fee")
	ErrUnknownTier          = errors.New("unknown tier")
	ErrSessionNotFound      = errors.New("session not found")
	ErrLevelChangeNotFound  = errors.New("level change request not found")
	ErrSessionNotActive     = errors.New("session is not active")
	ErrUnauthorizedPlayer   = errors.New("caller does not own this session")
	ErrSeedNotDelivered     = errors.New("session seed not yet delivered")
)

// State is a session's lifecycle position.
type State string

const (
	StateCreated            State = "created"
	StateAwaitingSeed       State = "awaiting_seed"
	StateActive             State = "active"
	StateLevelChangePending State = "level_change_pending"
	StateEnded              State = "ended"
)

// live reports whether a session still counts against the one-active-session
// invariant.
func (s State) live() bool {
	return s == StateCreated || s == StateAwaitingSeed || s == StateActive || s == StateLevelChangePending
}

// Session is one paid play session.
type Session struct {
	ID           uint64        `json:"id"`
	Player       string        `json:"player"`
	Tier         Tier          `json:"-"`
	TierName     string        `json:"tier"`
	EntryCost    reward.Amount `json:"entry_cost"`
	MultiplierBP int64         `json:"multiplier_bp"`
	State        State         `json:"state"`
	CreatedAt    time.Time     `json:"created_at"`

	// Seed and Schedule are populated exactly once by the randomness
	// callback; SeedSet distinguishes "not yet delivered" from a
	// legitimately zero value.
	Seed     engine.Seed     `json:"-"`
	SeedSet  bool            `json:"seed_set"`
	Schedule engine.Schedule `json:"schedule,omitempty"`

	// NextThreshold indexes the first schedule entry not yet consumed by a
	// level change. Advances monotonically.
	NextThreshold int `json:"next_threshold"`

	FinalScore uint64    `json:"final_score,omitempty"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

// LevelChangeRequest tracks one in-flight mid-session difficulty reroll.
type LevelChangeRequest struct {
	ID             uint64    `json:"id"`
	SessionID      uint64    `json:"session_id"`
	Player         string    `json:"player"`
	ScoreAtRequest uint64    `json:"score_at_request"`
	Fulfilled      bool      `json:"fulfilled"`
	Difficulty     int       `json:"difficulty,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
