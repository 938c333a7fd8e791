package seal

import (
	"crypto/subtle"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/oracle"
)

// Registry owns sealed-session state. All mutations are serialized behind
// one lock; reveal deliveries are idempotent.
type Registry struct {
	reveals    oracle.RevealSource
	correlator *oracle.Correlator
	clock      ChainClock
	logger     *log.Logger
	adminKey   Capability
	now        func() time.Time

	mu       sync.Mutex
	nextID   uint64
	seals    map[uint64]*Sealed
	byGameID map[uint64]uint64
	events   []Event
}

// NewRegistry creates a registry. adminKey gates the emergency path; an
// empty key disables it entirely.
func NewRegistry(reveals oracle.RevealSource, correlator *oracle.Correlator, clock ChainClock, adminKey Capability, logger *log.Logger) *Registry {
	return &Registry{
		reveals:    reveals,
		correlator: correlator,
		clock:      clock,
		logger:     logger,
		adminKey:   adminKey,
		now:        func() time.Time { return time.Now().UTC() },
		nextID:     1,
		seals:      make(map[uint64]*Sealed),
		byGameID:   make(map[uint64]uint64),
	}
}

// SetNow overrides the registry clock. Tests only.
func (r *Registry) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// CreateSealed commits an encrypted multiplier against a game session and
// issues the conditional-decryption request. One seal per game session.
// Time seals unlock after the given delay; block seals unlock at an
// absolute height that must be strictly in the future.
func (r *Registry) CreateSealed(player string, gameSessionID uint64, kind Kind, delay time.Duration, unlockHeight uint64, ciphertext []byte) (Sealed, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byGameID[gameSessionID]; ok {
		return Sealed{}, "", ErrSessionAlreadySealed
	}

	s := &Sealed{
		ID:            r.nextID,
		Player:        player,
		GameSessionID: gameSessionID,
		Kind:          kind,
		Ciphertext:    append([]byte(nil), ciphertext...),
		State:         StateAwaitingReveal,
		CreatedAt:     r.now(),
	}

	var condition string
	switch kind {
	case KindTime:
		if delay <= 0 {
			return Sealed{}, "", fmt.Errorf("%w: delay %s", ErrNonFutureCondition, delay)
		}
		s.UnlockTime = s.CreatedAt.Add(delay)
		condition = fmt.Sprintf("time:%d", s.UnlockTime.Unix())
	case KindBlock:
		if unlockHeight <= r.clock.Height() {
			return Sealed{}, "", fmt.Errorf("%w: height %d at current %d", ErrNonFutureCondition, unlockHeight, r.clock.Height())
		}
		s.UnlockHeight = unlockHeight
		condition = fmt.Sprintf("block:%d", unlockHeight)
	default:
		return Sealed{}, "", fmt.Errorf("unknown seal kind %q", kind)
	}

	reqID, err := r.reveals.RequestReveal(condition, s.Ciphertext)
	if err != nil {
		return Sealed{}, "", fmt.Errorf("reveal request failed: %w", err)
	}

	r.nextID++
	r.seals[s.ID] = s
	r.byGameID[gameSessionID] = s.ID
	r.correlator.Register(oracle.Request{
		ID:        reqID,
		Purpose:   oracle.PurposeSealedReveal,
		Player:    player,
		SubjectID: s.ID,
	})

	if r.logger != nil {
		r.logger.Printf("seal_created id=%d player=%s game_session=%d kind=%s request_id=%s", s.ID, player, gameSessionID, kind, reqID)
	}
	return *s, reqID, nil
}

// OnRevealDelivered applies a released decryption key. A decryption that
// fails or produces an out-of-range multiplier is rejected: the seal stays
// AwaitingReveal with a recorded failure event, and the emergency path is
// the sanctioned recovery. Deliveries for revealed or unknown seals are
// absorbed.
func (r *Registry) OnRevealDelivered(req oracle.Request, key engine.Seed) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.seals[req.SubjectID]
	if !ok || s.Revealed() {
		return
	}

	multiplier, err := DecryptMultiplier(s.Ciphertext, key)
	if err != nil {
		r.record(s.ID, EventRevealRejected, fmt.Sprintf("decryption failed: %v", err))
		return
	}
	if multiplier < MinMultiplierBP || multiplier > MaxMultiplierBP {
		r.record(s.ID, EventRevealRejected, fmt.Sprintf("multiplier %d outside [%d, %d]", multiplier, MinMultiplierBP, MaxMultiplierBP))
		return
	}

	s.State = StateRevealed
	s.RevealedBP = multiplier
	s.RevealedAt = r.now()
	r.record(s.ID, EventRevealed, "")

	if r.logger != nil {
		r.logger.Printf("seal_revealed id=%d multiplier_bp=%d", s.ID, multiplier)
	}
}

// IsReadyToReveal reports whether the unlock condition currently holds.
func (r *Registry) IsReadyToReveal(sealID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.seals[sealID]
	if !ok {
		return false, ErrSealNotFound
	}
	switch s.Kind {
	case KindBlock:
		return r.clock.Height() >= s.UnlockHeight, nil
	default:
		return !r.now().Before(s.UnlockTime), nil
	}
}

// EmergencyReveal manually discloses a multiplier for a seal whose normal
// reveal path never completed. Requires the admin capability, a seal at
// least EmergencyWait old, and an in-range multiplier. This is a deliberate
// trust trade-off: liveness against a dead oracle in exchange for one
// privileged write path.
func (r *Registry) EmergencyReveal(key Capability, sealID uint64, multiplierBP int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(r.adminKey)) != 1 {
		return ErrBadCapability
	}
	s, ok := r.seals[sealID]
	if !ok {
		return ErrSealNotFound
	}
	if s.Revealed() {
		return ErrAlreadyRevealed
	}
	if r.now().Sub(s.CreatedAt) < EmergencyWait {
		return ErrEmergencyTooEarly
	}
	if multiplierBP < MinMultiplierBP || multiplierBP > MaxMultiplierBP {
		return fmt.Errorf("%w: %d", ErrInvalidMultiplierRange, multiplierBP)
	}

	s.State = StateEmergencyRevealed
	s.RevealedBP = multiplierBP
	s.RevealedAt = r.now()
	r.record(s.ID, EventEmergencyReveal, fmt.Sprintf("multiplier %d", multiplierBP))

	if r.logger != nil {
		r.logger.Printf("seal_emergency_revealed id=%d multiplier_bp=%d", s.ID, multiplierBP)
	}
	return nil
}

// Get returns a copy of a seal.
func (r *Registry) Get(sealID uint64) (Sealed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seals[sealID]
	if !ok {
		return Sealed{}, false
	}
	return *s, true
}

// ByGameSession returns the seal committed for a game session.
func (r *Registry) ByGameSession(gameSessionID uint64) (Sealed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byGameID[gameSessionID]
	if !ok {
		return Sealed{}, false
	}
	s, ok := r.seals[id]
	if !ok {
		return Sealed{}, false
	}
	return *s, true
}

// Events returns the recorded reveal-path events, oldest first.
func (r *Registry) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Registry) record(sealID uint64, typ, detail string) {
	r.events = append(r.events, Event{SealID: sealID, Type: typ, Detail: detail, At: r.now()})
}
