// Package core assembles the engine: the session machine, the seal registry,
// the progression ledger, the claim ledger, and the oracle plumbing that
// connects them. The API layer talks only to this package.
package core

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/games"
	"github.com/sealrush/sealrush-go/internal/oracle"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
	"github.com/sealrush/sealrush-go/internal/store"
	"github.com/sealrush/sealrush-go/internal/verify"
)

// Config collects everything New needs to assemble an engine. Zero-value
// fields get dev defaults: an in-process stub oracle, an unfunded memory
// pool, no persistence.
type Config struct {
	// Randomness and Reveals are the external oracle boundaries. When both
	// are nil a shared StubSource serves the two roles.
	Randomness oracle.RandomnessSource
	Reveals    oracle.RevealSource

	// AdminKey gates the seal emergency path. Empty disables it.
	AdminKey seal.Capability

	// PoolBalance funds the in-process payout pool. Ignored when Pool is
	// set.
	PoolBalance reward.Amount
	Pool        claims.Pool

	// ChainStart is the initial height of the manual chain clock.
	ChainStart uint64

	// DB, when set, enables write-through persistence and boot restore.
	DB store.DB

	Logger *log.Logger
}

// nextGamePick tracks one in-flight next-game-selection request.
type nextGamePick struct {
	ID        uint64
	Player    string
	CurrentID string
	Fulfilled bool
	Pick      games.Spec
	CreatedAt time.Time
}

// Engine is the assembled game backend.
type Engine struct {
	logger     *log.Logger
	randomness oracle.RandomnessSource
	correlator *oracle.Correlator
	dispatcher *oracle.Dispatcher
	stub       *oracle.StubSource
	chain      *seal.ManualChain
	db         store.DB

	sessions    *session.Machine
	seals       *seal.Registry
	progression *progression.Ledger
	boards      *progression.Boards
	pool        claims.Pool
	claims      *claims.Ledger

	mu         sync.Mutex
	nextPickID uint64
	picks      map[uint64]*nextGamePick
}

// New assembles an engine from the config, wires the oracle dispatch table,
// and restores persisted state when a DB is configured.
func New(cfg Config) (*Engine, error) {
	correlator := oracle.NewCorrelator()
	dispatcher := oracle.NewDispatcher(correlator, cfg.Logger)

	var stub *oracle.StubSource
	if cfg.Randomness == nil || cfg.Reveals == nil {
		stub = oracle.NewStubSource()
		if cfg.Randomness == nil {
			cfg.Randomness = stub
		}
		if cfg.Reveals == nil {
			cfg.Reveals = stub
		}
	}

	chain := seal.NewManualChain(cfg.ChainStart)
	pool := cfg.Pool
	if pool == nil {
		pool = claims.NewMemoryPool(cfg.PoolBalance)
	}

	e := &Engine{
		logger:      cfg.Logger,
		randomness:  cfg.Randomness,
		correlator:  correlator,
		dispatcher:  dispatcher,
		stub:        stub,
		chain:       chain,
		db:          cfg.DB,
		sessions:    session.NewMachine(cfg.Randomness, correlator, cfg.Logger),
		seals:       seal.NewRegistry(cfg.Reveals, correlator, chain, cfg.AdminKey, cfg.Logger),
		progression: progression.NewLedger(cfg.Logger),
		boards:      progression.NewBoards(),
		pool:        pool,
		nextPickID:  1,
		picks:       make(map[uint64]*nextGamePick),
	}
	e.claims = claims.NewLedger(pool, e.seals, e.progression, cfg.Logger)

	dispatcher.Handle(oracle.PurposeSessionSeed, e.sessions.OnSeedDelivered)
	dispatcher.Handle(oracle.PurposeLevelChange, e.sessions.OnLevelChangeDelivered)
	dispatcher.Handle(oracle.PurposeSealedReveal, e.onRevealDelivered)
	dispatcher.Handle(oracle.PurposeNextGame, e.onNextGameDelivered)

	if cfg.DB != nil {
		if err := cfg.DB.Migrate(); err != nil {
			return nil, err
		}
		if err := e.restore(); err != nil {
			return nil, err
		}
		e.sessions.OnEnded(func(s session.Session) { e.persist(cfg.DB.SaveSession(s)) })
		e.progression.OnChanged(func(p progression.Profile) { e.persist(cfg.DB.SaveProfile(p)) })
		e.claims.OnSettled(func(c claims.Claim) { e.persist(cfg.DB.SaveClaim(c)) })
	}
	return e, nil
}

// Dispatcher exposes the oracle dispatcher so callers can run its delivery
// loop and feed it webhook callbacks.
func (e *Engine) Dispatcher() *oracle.Dispatcher { return e.dispatcher }

// Stub returns the in-process oracle, or nil when external sources were
// configured.
func (e *Engine) Stub() *oracle.StubSource { return e.stub }

// Chain returns the manual chain clock backing block unlock conditions.
func (e *Engine) Chain() *seal.ManualChain { return e.chain }

// PoolBalance reports the payout pool balance.
func (e *Engine) PoolBalance() reward.Amount { return e.pool.Balance() }

// PendingOracle reports outstanding oracle requests, for readiness checks.
func (e *Engine) PendingOracle() int { return e.correlator.PendingCount() }

// --- sessions ---

// CreateSession starts a paid session and issues its seed request.
func (e *Engine) CreateSession(player string, tier session.Tier, payment reward.Amount) (session.Session, string, error) {
	return e.sessions.CreateSession(player, tier, payment)
}

// Session returns a session by id.
func (e *Engine) Session(id uint64) (session.Session, bool) {
	return e.sessions.Get(id)
}

// ActiveSession returns the player's live session, if any.
func (e *Engine) ActiveSession(player string) (session.Session, bool) {
	return e.sessions.ActiveSession(player)
}

// ShouldTriggerLevelChange reports the first unconsumed threshold the score
// has reached.
func (e *Engine) ShouldTriggerLevelChange(sessionID, score uint64) (engine.Threshold, bool, error) {
	return e.sessions.ShouldTriggerLevelChange(sessionID, score)
}

// RequestLevelChange consumes a reached threshold and issues the difficulty
// reroll request.
func (e *Engine) RequestLevelChange(player string, sessionID, score uint64) (session.LevelChangeRequest, string, error) {
	return e.sessions.RequestLevelChange(player, sessionID, score)
}

// LevelRequest returns a level-change request by id.
func (e *Engine) LevelRequest(id uint64) (session.LevelChangeRequest, bool) {
	return e.sessions.LevelRequest(id)
}

// EndSession ends the player's session.
func (e *Engine) EndSession(player string, sessionID, finalScore uint64) error {
	return e.sessions.EndSession(player, sessionID, finalScore)
}

// --- seals ---

// CreateSealed commits an encrypted multiplier against a game session.
func (e *Engine) CreateSealed(player string, gameSessionID uint64, kind seal.Kind, delay time.Duration, unlockHeight uint64, ciphertext []byte) (seal.Sealed, string, error) {
	s, reqID, err := e.seals.CreateSealed(player, gameSessionID, kind, delay, unlockHeight, ciphertext)
	if err != nil {
		return seal.Sealed{}, "", err
	}
	if e.db != nil {
		e.persist(e.db.SaveSeal(s))
	}
	return s, reqID, nil
}

// Seal returns a seal by id.
func (e *Engine) Seal(id uint64) (seal.Sealed, bool) { return e.seals.Get(id) }

// SealByGameSession returns the seal committed for a game session.
func (e *Engine) SealByGameSession(gameSessionID uint64) (seal.Sealed, bool) {
	return e.seals.ByGameSession(gameSessionID)
}

// IsReadyToReveal reports whether a seal's unlock condition holds.
func (e *Engine) IsReadyToReveal(sealID uint64) (bool, error) {
	return e.seals.IsReadyToReveal(sealID)
}

// EmergencyReveal manually discloses a stuck seal's multiplier.
func (e *Engine) EmergencyReveal(key seal.Capability, sealID uint64, multiplierBP int64) error {
	if err := e.seals.EmergencyReveal(key, sealID, multiplierBP); err != nil {
		return err
	}
	if s, ok := e.seals.Get(sealID); ok && e.db != nil {
		e.persist(e.db.SaveSeal(s))
	}
	return nil
}

// SealEvents returns the reveal-path event log.
func (e *Engine) SealEvents() []seal.Event { return e.seals.Events() }

// onRevealDelivered applies a reveal delivery and writes the resulting seal
// state through.
func (e *Engine) onRevealDelivered(req oracle.Request, key engine.Seed) {
	e.seals.OnRevealDelivered(req, key)
	if s, ok := e.seals.Get(req.SubjectID); ok && e.db != nil {
		e.persist(e.db.SaveSeal(s))
	}
}

// --- claims ---

// ClaimRegular settles a regular claim against the caller's session.
func (e *Engine) ClaimRegular(player string, sessionID, points uint64) (claims.Claim, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return claims.Claim{}, session.ErrSessionNotFound
	}
	if s.Player != player {
		return claims.Claim{}, session.ErrUnauthorizedPlayer
	}
	return e.claims.ClaimRegular(player, points, sessionID, s.MultiplierBP)
}

// ClaimSealed records a pending claim against the session's seal.
func (e *Engine) ClaimSealed(player string, sessionID, points uint64) (claims.Claim, error) {
	return e.claims.ClaimSealed(player, points, sessionID)
}

// ProcessSealedClaim settles a pending sealed claim once its seal revealed.
func (e *Engine) ProcessSealedClaim(claimID uint64) (claims.Claim, error) {
	return e.claims.ProcessSealedClaim(claimID)
}

// Claim returns a claim by id.
func (e *Engine) Claim(id uint64) (claims.Claim, bool) { return e.claims.Get(id) }

// ClaimsFor lists a player's claims, oldest first.
func (e *Engine) ClaimsFor(player string) []claims.Claim { return e.claims.For(player) }

// --- progression and leaderboards ---

// RecordGame folds one finished game into progression and the leaderboards.
// The reported multiplier is client-supplied and feeds the XP formula, so it
// is held to the session multiplier range before anything is mutated.
func (e *Engine) RecordGame(player, gameID string, score, tokens uint64, multiplierBP int64, sealed bool) (progression.GameResult, error) {
	if _, ok := games.ByID(gameID); !ok {
		return progression.GameResult{}, games.ErrUnknownGame
	}
	if multiplierBP < progression.MinGameMultiplierBP || multiplierBP > progression.MaxGameMultiplierBP {
		return progression.GameResult{}, fmt.Errorf("%w: %d bp", progression.ErrInvalidMultiplier, multiplierBP)
	}

	result := e.progression.RecordGameResult(player, score, tokens, multiplierBP, sealed)
	p, _ := e.progression.Get(player)
	e.boards.Record(progression.Entry{Player: player, Name: p.Username, Score: score})

	if e.db != nil {
		if len(result.Unlocked) > 0 {
			names := make([]string, len(result.Unlocked))
			for i, u := range result.Unlocked {
				names[i] = u.Achievement
			}
			e.persist(e.db.SaveUnlocks(player, names))
		}
		e.persistBoards()
	}
	return result, nil
}

// Register sets a player's username.
func (e *Engine) Register(player, username string) (progression.Profile, error) {
	return e.progression.Register(player, username)
}

// Profile returns a player's progression profile.
func (e *Engine) Profile(player string) (progression.Profile, bool) {
	return e.progression.Get(player)
}

// Achievements lists the achievement catalog.
func (e *Engine) Achievements() []progression.Achievement {
	return e.progression.Achievements()
}

// UnlockedBy lists the achievements a player has earned.
func (e *Engine) UnlockedBy(player string) []string {
	return e.progression.UnlockedBy(player)
}

// Leaderboard returns a ranked board by window.
func (e *Engine) Leaderboard(w progression.Window) ([]progression.Entry, bool) {
	return e.boards.Get(w)
}

// --- games ---

// Games lists the mini-game catalog.
func (e *Engine) Games() []games.Spec { return games.List() }

// RequestNextGame issues a next-game-selection randomness request. The
// current game, when given, is excluded from the rotation.
func (e *Engine) RequestNextGame(player, currentID string) (uint64, string, error) {
	if currentID != "" {
		if _, ok := games.ByID(currentID); !ok {
			return 0, "", games.ErrUnknownGame
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	reqID, err := e.randomness.RequestRandomness()
	if err != nil {
		return 0, "", err
	}
	pick := &nextGamePick{
		ID:        e.nextPickID,
		Player:    player,
		CurrentID: currentID,
		CreatedAt: time.Now().UTC(),
	}
	e.nextPickID++
	e.picks[pick.ID] = pick

	e.correlator.Register(oracle.Request{
		ID:        reqID,
		Purpose:   oracle.PurposeNextGame,
		Player:    player,
		SubjectID: pick.ID,
	})
	if e.logger != nil {
		e.logger.Printf("next_game_requested id=%d player=%s current=%s request_id=%s", pick.ID, player, currentID, reqID)
	}
	return pick.ID, reqID, nil
}

// NextGame returns a next-game pick by id. Fulfilled is false until the
// randomness lands.
func (e *Engine) NextGame(id uint64) (games.Spec, bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pick, ok := e.picks[id]
	if !ok {
		return games.Spec{}, false, false
	}
	return pick.Pick, pick.Fulfilled, true
}

func (e *Engine) onNextGameDelivered(req oracle.Request, value engine.Seed) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pick, ok := e.picks[req.SubjectID]
	if !ok || pick.Fulfilled {
		return
	}
	pick.Pick = games.PickNext(value, pick.CurrentID)
	pick.Fulfilled = true
	if e.logger != nil {
		e.logger.Printf("next_game_fulfilled id=%d player=%s game=%s", pick.ID, pick.Player, pick.Pick.ID)
	}
}

// --- verification ---

// VerifySession re-derives a session's schedule for audit.
func (e *Engine) VerifySession(sessionID uint64) (verify.Result, error) {
	return verify.Session(e.sessions, sessionID)
}

// VerifySeed derives the schedule for an arbitrary hex seed.
func (e *Engine) VerifySeed(seedHex string) (engine.Schedule, error) {
	return verify.Seed(seedHex)
}

// --- persistence ---

// restore loads persisted profiles and leaderboards at boot.
func (e *Engine) restore() error {
	profiles, unlocks, err := e.db.LoadProfiles()
	if err != nil {
		return err
	}
	for _, p := range profiles {
		e.progression.Restore(p, unlocks[p.Player])
	}
	for _, w := range []progression.Window{progression.WindowAllTime, progression.WindowWeekly, progression.WindowDaily} {
		rows, err := e.db.LoadBoard(w)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			e.boards.Restore(w, rows)
		}
	}
	return nil
}

func (e *Engine) persistBoards() {
	for _, w := range []progression.Window{progression.WindowAllTime, progression.WindowWeekly, progression.WindowDaily} {
		if rows, ok := e.boards.Get(w); ok {
			e.persist(e.db.SaveBoard(w, rows))
		}
	}
}

// persist logs write-through failures. The in-memory state is authoritative;
// a failed save costs warm-restart fidelity, not correctness.
func (e *Engine) persist(err error) {
	if err != nil && e.logger != nil {
		e.logger.Printf("persist_failed error=%v", err)
	}
}
