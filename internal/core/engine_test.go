package core

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
	"github.com/sealrush/sealrush-go/internal/store"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestEngine(t, Config{PoolBalance: 100_000_000})

	s, _, err := e.CreateSession("alice", session.TierGold, 5_000_000)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.State != session.StateAwaitingSeed {
		t.Fatalf("state = %s, want awaiting_seed", s.State)
	}

	e.Stub().FulfillAll(e.Dispatcher())

	s, ok := e.Session(s.ID)
	if !ok || s.State != session.StateActive || !s.SeedSet {
		t.Fatalf("after seed: %+v", s)
	}

	// First threshold reached triggers a level change.
	score := s.Schedule[0].Score
	th, triggered, err := e.ShouldTriggerLevelChange(s.ID, score)
	if err != nil || !triggered {
		t.Fatalf("ShouldTriggerLevelChange: %v triggered=%v", err, triggered)
	}
	if th != s.Schedule[0] {
		t.Errorf("threshold = %+v, want schedule[0]", th)
	}

	req, _, err := e.RequestLevelChange("alice", s.ID, score)
	if err != nil {
		t.Fatalf("RequestLevelChange: %v", err)
	}
	e.Stub().FulfillAll(e.Dispatcher())

	lcr, ok := e.LevelRequest(req.ID)
	if !ok || !lcr.Fulfilled {
		t.Fatalf("level request not fulfilled: %+v", lcr)
	}
	if lcr.Difficulty < 1 || lcr.Difficulty > 10 {
		t.Errorf("difficulty = %d, want 1..10", lcr.Difficulty)
	}
	if s, _ = e.Session(s.ID); s.State != session.StateActive {
		t.Errorf("state after fulfillment = %s, want active", s.State)
	}

	if err := e.EndSession("alice", s.ID, 1500); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	// GOLD multiplier 200bp, level 1 bonus +2%: 1000 points pay 2.04 tokens.
	c, err := e.ClaimRegular("alice", s.ID, 1000)
	if err != nil {
		t.Fatalf("ClaimRegular: %v", err)
	}
	if c.Amount != 2_040_000 {
		t.Errorf("amount = %d, want 2040000", c.Amount)
	}
	if got := e.ClaimsFor("alice"); len(got) != 1 {
		t.Errorf("ClaimsFor = %d claims, want 1", len(got))
	}
}

func TestClaimRegularAuthorization(t *testing.T) {
	e := newTestEngine(t, Config{PoolBalance: 100_000_000})

	s, _, err := e.CreateSession("alice", session.TierFree, 0)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := e.ClaimRegular("mallory", s.ID, 1000); !errors.Is(err, session.ErrUnauthorizedPlayer) {
		t.Errorf("foreign claim: got %v, want ErrUnauthorizedPlayer", err)
	}
	if _, err := e.ClaimRegular("alice", 404, 1000); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("unknown session: got %v, want ErrSessionNotFound", err)
	}
}

func TestSealedFlow(t *testing.T) {
	e := newTestEngine(t, Config{PoolBalance: 100_000_000, AdminKey: "ops-key"})

	s, _, err := e.CreateSession("bob", session.TierFree, 0)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	e.Stub().FulfillAll(e.Dispatcher())

	var key engine.Seed
	copy(key[:], []byte("sealed-flow-test-key"))
	ciphertext := seal.EncryptMultiplier(400, key)

	sl, _, err := e.CreateSealed("bob", s.ID, seal.KindBlock, 0, 5, ciphertext)
	if err != nil {
		t.Fatalf("CreateSealed: %v", err)
	}

	if err := e.EndSession("bob", s.ID, 1200); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	c, err := e.ClaimSealed("bob", s.ID, 1000)
	if err != nil {
		t.Fatalf("ClaimSealed: %v", err)
	}
	if c.Claimed || !c.Sealed {
		t.Fatalf("pending claim: %+v", c)
	}

	// Settlement is blocked until the seal reveals.
	if _, err := e.ProcessSealedClaim(c.ID); !errors.Is(err, claims.ErrSealNotRevealed) {
		t.Fatalf("premature process: got %v, want ErrSealNotRevealed", err)
	}

	ready, err := e.IsReadyToReveal(sl.ID)
	if err != nil || ready {
		t.Fatalf("ready before height: %v ready=%v", err, ready)
	}
	e.Chain().Advance(5)
	if ready, _ = e.IsReadyToReveal(sl.ID); !ready {
		t.Fatal("not ready after chain advance")
	}

	// The oracle never delivers; the emergency path recovers the seal.
	e.seals.SetNow(func() time.Time { return time.Now().UTC().Add(25 * time.Hour) })
	if err := e.EmergencyReveal("ops-key", sl.ID, 400); err != nil {
		t.Fatalf("EmergencyReveal: %v", err)
	}

	// Revealed 400bp with level 1 bonus: 1000 points pay 4.08 tokens.
	c, err = e.ProcessSealedClaim(c.ID)
	if err != nil {
		t.Fatalf("ProcessSealedClaim: %v", err)
	}
	if c.Amount != 4_080_000 {
		t.Errorf("amount = %d, want 4080000", c.Amount)
	}
	if _, err := e.ProcessSealedClaim(c.ID); !errors.Is(err, claims.ErrClaimAlreadyProcessed) {
		t.Errorf("double process: got %v, want ErrClaimAlreadyProcessed", err)
	}
}

func TestRecordGameAndLeaderboard(t *testing.T) {
	e := newTestEngine(t, Config{})

	if _, err := e.RecordGame("alice", "no-such-game", 100, 0, 100, false); err == nil {
		t.Fatal("unknown game accepted")
	}

	res, err := e.RecordGame("alice", "coin-dash", 500, 20, 150, false)
	if err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	// 50 score share + 100 token bounty + 75 multiplier cut.
	if res.XPGained != 225 {
		t.Errorf("xp = %d, want 225", res.XPGained)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0].Achievement != "first_run" {
		t.Errorf("unlocks = %+v, want first_run", res.Unlocked)
	}

	rows, ok := e.Leaderboard(progression.WindowAllTime)
	if !ok || len(rows) != 1 || rows[0].Score != 500 {
		t.Fatalf("board = %+v", rows)
	}

	if _, err := e.Register("alice", "Speedy"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := e.RecordGame("alice", "gem-stack", 900, 0, 100, false); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	rows, _ = e.Leaderboard(progression.WindowAllTime)
	if rows[0].Name != "Speedy" || rows[0].Score != 900 {
		t.Errorf("top row = %+v, want Speedy/900", rows[0])
	}
}

func TestRecordGameRejectsOutOfRangeMultiplier(t *testing.T) {
	e := newTestEngine(t, Config{})

	for _, bp := range []int64{-1, 0, 99, 301, 5000} {
		if _, err := e.RecordGame("alice", "coin-dash", 1000, 0, bp, false); !errors.Is(err, progression.ErrInvalidMultiplier) {
			t.Errorf("multiplier %d: got %v, want ErrInvalidMultiplier", bp, err)
		}
	}

	// Rejected games leave no trace in progression.
	if _, ok := e.Profile("alice"); ok {
		t.Error("rejected game created a profile")
	}
}

func TestNextGameSelection(t *testing.T) {
	e := newTestEngine(t, Config{})

	if _, _, err := e.RequestNextGame("alice", "no-such-game"); err == nil {
		t.Fatal("unknown current game accepted")
	}

	id, _, err := e.RequestNextGame("alice", "coin-dash")
	if err != nil {
		t.Fatalf("RequestNextGame: %v", err)
	}
	if _, fulfilled, ok := e.NextGame(id); !ok || fulfilled {
		t.Fatalf("pick before delivery: ok=%v fulfilled=%v", ok, fulfilled)
	}

	e.Stub().FulfillAll(e.Dispatcher())

	pick, fulfilled, ok := e.NextGame(id)
	if !ok || !fulfilled {
		t.Fatalf("pick after delivery: ok=%v fulfilled=%v", ok, fulfilled)
	}
	if pick.ID == "coin-dash" {
		t.Error("rotation repeated the current game")
	}
}

func TestAuditThroughEngine(t *testing.T) {
	e := newTestEngine(t, Config{})

	s, _, err := e.CreateSession("alice", session.TierFree, 0)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	e.Stub().FulfillAll(e.Dispatcher())

	res, err := e.VerifySession(s.ID)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if !res.Matches {
		t.Error("untampered session failed audit")
	}
	schedule, err := e.VerifySeed(res.Seed)
	if err != nil {
		t.Fatalf("VerifySeed: %v", err)
	}
	if schedule != res.Schedule {
		t.Error("re-derivation diverged")
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.db")

	db, err := store.NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	e := newTestEngine(t, Config{DB: db, PoolBalance: 10_000_000})

	if _, err := e.RecordGame("alice", "coin-dash", 500, 20, 150, false); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	s, _, err := e.CreateSession("alice", session.TierFree, 0)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := e.ClaimRegular("alice", s.ID, 100); err != nil {
		t.Fatalf("ClaimRegular: %v", err)
	}
	db.Close()

	db2, err := store.NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	e2 := newTestEngine(t, Config{DB: db2})

	p, ok := e2.Profile("alice")
	if !ok {
		t.Fatal("profile not restored")
	}
	if p.TotalScore != 500 || p.GamesPlayed != 1 {
		t.Errorf("restored profile %+v", p)
	}
	if names := e2.UnlockedBy("alice"); len(names) != 1 || names[0] != "first_run" {
		t.Errorf("restored unlocks = %v", names)
	}
	rows, ok := e2.Leaderboard(progression.WindowAllTime)
	if !ok || len(rows) != 1 || rows[0].Score != 500 {
		t.Errorf("restored board = %+v", rows)
	}
	saved, err := db2.ListClaims("alice")
	if err != nil || len(saved) != 1 {
		t.Errorf("persisted claims = %+v err=%v", saved, err)
	}
}
