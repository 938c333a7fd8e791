package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/oracle"
	"github.com/sealrush/sealrush-go/internal/reward"
)

// Machine is the session state machine. It consumes the randomness source
// for seed and level-change requests and registers every request with the
// correlator so deliveries can find their way back.
type Machine struct {
	randomness oracle.RandomnessSource
	correlator *oracle.Correlator
	logger     *log.Logger

	mu          sync.Mutex
	nextID      uint64
	nextLevelID uint64
	sessions    map[uint64]*Session
	levelReqs   map[uint64]*LevelChangeRequest
	activeByPlr map[string]uint64

	// onEnded, when set, receives every ended session for write-through
	// persistence.
	onEnded func(Session)
}

// NewMachine creates a session machine over the given oracle plumbing.
func NewMachine(randomness oracle.RandomnessSource, correlator *oracle.Correlator, logger *log.Logger) *Machine {
	return &Machine{
		randomness:  randomness,
		correlator:  correlator,
		logger:      logger,
		nextID:      1,
		nextLevelID: 1,
		sessions:    make(map[uint64]*Session),
		levelReqs:   make(map[uint64]*LevelChangeRequest),
		activeByPlr: make(map[string]uint64),
	}
}

// OnEnded registers a sink for ended sessions.
func (m *Machine) OnEnded(fn func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// CreateSession allocates a session for the player, charges the tier entry
// fee, and issues the seed randomness request. At most one live session per
// player.
func (m *Machine) CreateSession(player string, tier Tier, payment reward.Amount) (Session, string, error) {
	cfg, ok := tier.Config()
	if !ok {
		return Session{}, "", fmt.Errorf("%w: %d", ErrUnknownTier, int(tier))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.activeByPlr[player]; ok {
		if s := m.sessions[id]; s != nil && s.State.live() {
			return Session{}, "", ErrSessionAlreadyActive
		}
	}
	if payment < cfg.EntryCost {
		return Session{}, "", fmt.Errorf("%w: need %s, got %s", ErrInsufficientEntryFee, cfg.EntryCost, payment)
	}

	reqID, err := m.randomness.RequestRandomness()
	if err != nil {
		return Session{}, "", fmt.Errorf("randomness request failed: %w", err)
	}

	s := &Session{
		ID:           m.nextID,
		Player:       player,
		Tier:         tier,
		TierName:     tier.String(),
		EntryCost:    cfg.EntryCost,
		MultiplierBP: cfg.MultiplierBP,
		State:        StateAwaitingSeed,
		CreatedAt:    time.Now().UTC(),
	}
	m.nextID++
	m.sessions[s.ID] = s
	m.activeByPlr[player] = s.ID

	m.correlator.Register(oracle.Request{
		ID:        reqID,
		Purpose:   oracle.PurposeSessionSeed,
		Player:    player,
		SubjectID: s.ID,
	})

	if m.logger != nil {
		m.logger.Printf("session_created id=%d player=%s tier=%s request_id=%s", s.ID, player, tier, reqID)
	}
	return *s, reqID, nil
}

// OnSeedDelivered is the randomness-callback handler for session seeds.
// Re-delivery after the seed is set, or delivery for an ended or unknown
// session, is a no-op.
func (m *Machine) OnSeedDelivered(req oracle.Request, value engine.Seed) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[req.SubjectID]
	if !ok || s.SeedSet || s.State == StateEnded {
		return
	}
	s.Seed = value
	s.SeedSet = true
	s.Schedule = engine.DeriveSchedule(value)
	s.State = StateActive

	if m.logger != nil {
		m.logger.Printf("session_seeded id=%d player=%s", s.ID, s.Player)
	}
}

// ShouldTriggerLevelChange scans the schedule in order and returns the first
// unconsumed threshold the score has reached. Pure read; nothing advances.
func (m *Machine) ShouldTriggerLevelChange(sessionID, score uint64) (engine.Threshold, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return engine.Threshold{}, false, ErrSessionNotFound
	}
	if !s.SeedSet {
		return engine.Threshold{}, false, ErrSeedNotDelivered
	}
	for i := s.NextThreshold; i < engine.ScheduleLen; i++ {
		if score >= s.Schedule[i].Score {
			return s.Schedule[i], true, nil
		}
	}
	return engine.Threshold{}, false, nil
}

// RequestLevelChange consumes the next reached threshold and issues a
// randomness request for the replacement difficulty. Gameplay is not
// blocked: the session sits in LevelChangePending but keeps accepting
// reads until the delivery lands.
func (m *Machine) RequestLevelChange(player string, sessionID, score uint64) (LevelChangeRequest, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return LevelChangeRequest{}, "", ErrSessionNotFound
	}
	if s.Player != player {
		return LevelChangeRequest{}, "", ErrUnauthorizedPlayer
	}
	if s.State != StateActive {
		return LevelChangeRequest{}, "", ErrSessionNotActive
	}

	reqID, err := m.randomness.RequestRandomness()
	if err != nil {
		return LevelChangeRequest{}, "", fmt.Errorf("randomness request failed: %w", err)
	}

	lcr := &LevelChangeRequest{
		ID:             m.nextLevelID,
		SessionID:      s.ID,
		Player:         player,
		ScoreAtRequest: score,
		CreatedAt:      time.Now().UTC(),
	}
	m.nextLevelID++
	m.levelReqs[lcr.ID] = lcr

	// Consume every threshold the score has already passed so the same
	// level change cannot be requested twice.
	for s.NextThreshold < engine.ScheduleLen && score >= s.Schedule[s.NextThreshold].Score {
		s.NextThreshold++
	}
	s.State = StateLevelChangePending

	m.correlator.Register(oracle.Request{
		ID:        reqID,
		Purpose:   oracle.PurposeLevelChange,
		Player:    player,
		SubjectID: lcr.ID,
	})

	if m.logger != nil {
		m.logger.Printf("level_change_requested session=%d player=%s score=%d request_id=%s", s.ID, player, score, reqID)
	}
	return *lcr, reqID, nil
}

// OnLevelChangeDelivered fulfills a pending level-change request. Already
// fulfilled or unknown requests are absorbed; a session that ended while
// the request was in flight stays ended.
func (m *Machine) OnLevelChangeDelivered(req oracle.Request, value engine.Seed) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lcr, ok := m.levelReqs[req.SubjectID]
	if !ok || lcr.Fulfilled {
		return
	}
	lcr.Fulfilled = true
	lcr.Difficulty = engine.Difficulty(value)

	if s, ok := m.sessions[lcr.SessionID]; ok && s.State == StateLevelChangePending {
		s.State = StateActive
	}

	if m.logger != nil {
		m.logger.Printf("level_change_fulfilled session=%d difficulty=%d", lcr.SessionID, lcr.Difficulty)
	}
}

// EndSession ends the caller's session. A second end fails with
// ErrSessionNotActive; in-flight oracle requests for the session are
// dropped so late deliveries dissolve into no-ops.
func (m *Machine) EndSession(player string, sessionID, finalScore uint64) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if s.Player != player {
		m.mu.Unlock()
		return ErrUnauthorizedPlayer
	}
	if s.State == StateEnded {
		m.mu.Unlock()
		return ErrSessionNotActive
	}

	s.State = StateEnded
	s.FinalScore = finalScore
	s.EndedAt = time.Now().UTC()
	if m.activeByPlr[player] == s.ID {
		delete(m.activeByPlr, player)
	}

	m.correlator.DropSubject(oracle.PurposeSessionSeed, s.ID)
	for _, lcr := range m.levelReqs {
		if lcr.SessionID == s.ID && !lcr.Fulfilled {
			m.correlator.DropSubject(oracle.PurposeLevelChange, lcr.ID)
		}
	}

	ended := *s
	sink := m.onEnded
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Printf("session_ended id=%d player=%s final_score=%d", ended.ID, player, finalScore)
	}
	if sink != nil {
		sink(ended)
	}
	return nil
}

// Get returns a copy of a session.
func (m *Machine) Get(sessionID uint64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ActiveSession returns a copy of the player's live session, if any.
func (m *Machine) ActiveSession(player string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.activeByPlr[player]
	if !ok {
		return Session{}, false
	}
	s, ok := m.sessions[id]
	if !ok || !s.State.live() {
		return Session{}, false
	}
	return *s, true
}

// LevelRequest returns a copy of a level-change request.
func (m *Machine) LevelRequest(id uint64) (LevelChangeRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lcr, ok := m.levelReqs[id]
	if !ok {
		return LevelChangeRequest{}, false
	}
	return *lcr, true
}
