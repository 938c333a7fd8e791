// Package claims owns claim records and gates payout. Regular claims settle
// in one step; sealed claims are recorded pending and settle exactly once
// after their seal reveals.
package claims

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
)

var (
	ErrInsufficientPoints    = errors.New("points below claim minimum")
	ErrInsufficientBalance   = errors.New("payout pool cannot cover claim")
	ErrClaimNotFound         = errors.New("claim not found")
	ErrClaimAlreadyProcessed = errors.New("claim already processed")
	ErrSealNotRevealed       = errors.New("sealed session not yet revealed")
	ErrUnauthorizedClaim     = errors.New("caller does not own the sealed session")
)

// Claim is one claim record, regular or sealed.
type Claim struct {
	ID           uint64        `json:"id"`
	Player       string        `json:"player"`
	Points       uint64        `json:"points"`
	SessionID    uint64        `json:"session_id"`
	SealID       uint64        `json:"seal_id,omitempty"`
	Base         reward.Amount `json:"base"`
	MultiplierBP int64         `json:"multiplier_bp"`
	Sealed       bool          `json:"sealed"`
	Claimed      bool          `json:"claimed"`
	Amount       reward.Amount `json:"amount"`
	CreatedAt    time.Time     `json:"created_at"`
	SettledAt    time.Time     `json:"settled_at,omitempty"`
}

// SealSource is the read surface the ledger needs from the reveal registry.
type SealSource interface {
	ByGameSession(gameSessionID uint64) (seal.Sealed, bool)
	Get(sealID uint64) (seal.Sealed, bool)
}

// Progression is the read/credit surface the ledger needs from the
// progression ledger.
type Progression interface {
	Level(player string) int
	AddClaimed(player string, amount int64)
}

// Ledger composes the reward pipeline with the pool and the seal registry.
// Every settlement is one serialized check-and-debit.
type Ledger struct {
	pool        Pool
	seals       SealSource
	progression Progression
	logger      *log.Logger

	mu        sync.Mutex
	nextID    uint64
	claims    map[uint64]*Claim
	onSettled func(Claim)
}

// NewLedger creates a claim ledger.
func NewLedger(pool Pool, seals SealSource, progression Progression, logger *log.Logger) *Ledger {
	return &Ledger{
		pool:        pool,
		seals:       seals,
		progression: progression,
		logger:      logger,
		nextID:      1,
		claims:      make(map[uint64]*Claim),
	}
}

// OnSettled registers a write-through sink for settled and pending claims.
func (l *Ledger) OnSettled(fn func(Claim)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSettled = fn
}

// ClaimRegular settles a regular claim immediately: compose the reward with
// the session multiplier and the player's level bonus, debit the pool,
// credit the player's lifetime total.
func (l *Ledger) ClaimRegular(player string, points uint64, sessionID uint64, sessionBP int64) (Claim, error) {
	if points < reward.MinClaimPoints {
		return Claim{}, ErrInsufficientPoints
	}

	level := l.progression.Level(player)
	base := reward.BaseReward(points)
	total := reward.TotalMultiplier(sessionBP, false, level)
	amount := reward.FinalReward(base, total)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.pool.Transfer(player, amount) {
		return Claim{}, ErrInsufficientBalance
	}

	c := &Claim{
		ID:           l.nextID,
		Player:       player,
		Points:       points,
		SessionID:    sessionID,
		Base:         base,
		MultiplierBP: total,
		Claimed:      true,
		Amount:       amount,
		CreatedAt:    time.Now().UTC(),
		SettledAt:    time.Now().UTC(),
	}
	l.nextID++
	l.claims[c.ID] = c
	l.progression.AddClaimed(player, int64(amount))
	l.notifyLocked(*c)

	if l.logger != nil {
		l.logger.Printf("claim_settled id=%d player=%s points=%d amount=%s", c.ID, player, points, amount)
	}
	return *c, nil
}

// ClaimSealed records a pending claim against the session's seal. The
// multiplier stays zero and nothing is paid until the seal reveals.
func (l *Ledger) ClaimSealed(player string, points uint64, sessionID uint64) (Claim, error) {
	if points < reward.MinClaimPoints {
		return Claim{}, ErrInsufficientPoints
	}
	s, ok := l.seals.ByGameSession(sessionID)
	if !ok {
		return Claim{}, seal.ErrSealNotFound
	}
	if s.Player != player {
		return Claim{}, ErrUnauthorizedClaim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c := &Claim{
		ID:        l.nextID,
		Player:    player,
		Points:    points,
		SessionID: sessionID,
		SealID:    s.ID,
		Base:      reward.BaseReward(points),
		Sealed:    true,
		CreatedAt: time.Now().UTC(),
	}
	l.nextID++
	l.claims[c.ID] = c
	l.notifyLocked(*c)

	if l.logger != nil {
		l.logger.Printf("sealed_claim_pending id=%d player=%s seal=%d points=%d", c.ID, player, s.ID, points)
	}
	return *c, nil
}

// ProcessSealedClaim settles a pending sealed claim once its seal has
// revealed: the revealed multiplier takes the session layer's place, the
// level bonus stacks on top, and the claimed flag makes settlement
// exactly-once.
func (l *Ledger) ProcessSealedClaim(claimID uint64) (Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.claims[claimID]
	if !ok || !c.Sealed {
		return Claim{}, ErrClaimNotFound
	}
	if c.Claimed {
		return Claim{}, ErrClaimAlreadyProcessed
	}
	s, ok := l.seals.Get(c.SealID)
	if !ok {
		return Claim{}, seal.ErrSealNotFound
	}
	if !s.Revealed() {
		return Claim{}, ErrSealNotRevealed
	}

	level := l.progression.Level(c.Player)
	total := reward.TotalMultiplier(s.RevealedBP, false, level)
	amount := reward.FinalReward(c.Base, total)

	if !l.pool.Transfer(c.Player, amount) {
		return Claim{}, ErrInsufficientBalance
	}

	c.MultiplierBP = total
	c.Amount = amount
	c.Claimed = true
	c.SettledAt = time.Now().UTC()
	l.progression.AddClaimed(c.Player, int64(amount))
	l.notifyLocked(*c)

	if l.logger != nil {
		l.logger.Printf("sealed_claim_settled id=%d player=%s amount=%s multiplier_bp=%d", c.ID, c.Player, amount, total)
	}
	return *c, nil
}

// Get returns a copy of a claim.
func (l *Ledger) Get(claimID uint64) (Claim, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claims[claimID]
	if !ok {
		return Claim{}, false
	}
	return *c, true
}

// For returns copies of all claims owned by a player, oldest first.
func (l *Ledger) For(player string) []Claim {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Claim
	for id := uint64(1); id < l.nextID; id++ {
		if c, ok := l.claims[id]; ok && c.Player == player {
			out = append(out, *c)
		}
	}
	return out
}

func (l *Ledger) notifyLocked(c Claim) {
	if l.onSettled != nil {
		l.onSettled(c)
	}
}
