// Package seal implements the sealed reveal protocol: a reward multiplier is
// committed encrypted at session start and disclosed only once a time or
// block condition is met. The encryption scheme itself is an external
// collaborator; this package owns the state machine around it, the
// acceptance range for revealed values, and the emergency override.
package seal

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionAlreadySealed   = errors.New("game session already has a sealed session")
	ErrSealNotFound           = errors.New("sealed session not found")
	ErrInvalidMultiplierRange = errors.New("multiplier outside acceptance range")
	ErrNonFutureCondition     = errors.New("unlock condition is not in the future")
	ErrAlreadyRevealed        = errors.New("sealed session already revealed")
	ErrEmergencyTooEarly      = errors.New("emergency reveal window has not opened")
	ErrBadCapability          = errors.New("invalid emergency capability")
)

// Acceptance range for revealed multipliers, basis points: 0.5x to 10x.
const (
	MinMultiplierBP = 50
	MaxMultiplierBP = 1000
)

// EmergencyWait is the minimum age of a seal before the privileged override
// may disclose it. The override exists purely as a liveness guarantee
// against a dead oracle; a 24-hour floor keeps it out of routine use.
const EmergencyWait = 24 * time.Hour

// Kind selects what the unlock condition measures.
type Kind string

const (
	KindTime  Kind = "time"
	KindBlock Kind = "block"
)

// State is a seal's lifecycle position. Revealed states are terminal.
type State string

const (
	StateAwaitingReveal    State = "awaiting_reveal"
	StateRevealed          State = "revealed"
	StateEmergencyRevealed State = "emergency_revealed"
)

// Sealed is one sealed session.
type Sealed struct {
	ID            uint64    `json:"id"`
	Player        string    `json:"player"`
	GameSessionID uint64    `json:"game_session_id"`
	Kind          Kind      `json:"kind"`
	UnlockTime    time.Time `json:"unlock_time,omitempty"`
	UnlockHeight  uint64    `json:"unlock_height,omitempty"`
	Ciphertext    []byte    `json:"-"`
	State         State     `json:"state"`
	RevealedBP    int64     `json:"revealed_bp,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	RevealedAt    time.Time `json:"revealed_at,omitempty"`
}

// Revealed reports whether the seal reached a terminal reveal state.
func (s *Sealed) Revealed() bool {
	return s.State == StateRevealed || s.State == StateEmergencyRevealed
}

// Capability is the privileged token gating the emergency path. It is a
// distinct type so the override cannot be called with an ordinary string by
// accident.
type Capability string

// ChainClock reports the current block height of the external chain.
type ChainClock interface {
	Height() uint64
}

// ManualChain is a hand-advanced ChainClock for the dev server and tests.
type ManualChain struct {
	mu     sync.Mutex
	height uint64
}

// NewManualChain creates a chain clock starting at the given height.
func NewManualChain(height uint64) *ManualChain {
	return &ManualChain{height: height}
}

// Height returns the current height.
func (c *ManualChain) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Advance moves the chain forward by n blocks.
func (c *ManualChain) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
}

// Event records a notable reveal-path occurrence, most importantly a
// rejected decryption. A failed reveal is not an error to the caller, since
// the seal stays revealable via the emergency path, but it must be
// observable.
type Event struct {
	SealID uint64    `json:"seal_id"`
	Type   string    `json:"type"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

const (
	EventRevealed        = "revealed"
	EventRevealRejected  = "reveal_rejected"
	EventEmergencyReveal = "emergency_revealed"
)
