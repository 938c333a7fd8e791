package session

import (
	"errors"
	"testing"

	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/oracle"
)

func newTestMachine() (*Machine, *oracle.StubSource, *oracle.Dispatcher) {
	src := oracle.NewStubSource()
	correlator := oracle.NewCorrelator()
	m := NewMachine(src, correlator, nil)
	d := oracle.NewDispatcher(correlator, nil)
	d.Handle(oracle.PurposeSessionSeed, m.OnSeedDelivered)
	d.Handle(oracle.PurposeLevelChange, m.OnLevelChangeDelivered)
	return m, src, d
}

func TestCreateSessionChargesTier(t *testing.T) {
	m, _, _ := newTestMachine()

	if _, _, err := m.CreateSession("alice", TierGold, 1_000_000); !errors.Is(err, ErrInsufficientEntryFee) {
		t.Fatalf("underpaid create: got %v, want ErrInsufficientEntryFee", err)
	}

	s, reqID, err := m.CreateSession("alice", TierGold, 5_000_000)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if reqID == "" {
		t.Error("no randomness request issued")
	}
	if s.State != StateAwaitingSeed {
		t.Errorf("state = %s, want awaiting_seed", s.State)
	}
	if s.MultiplierBP != 200 {
		t.Errorf("gold multiplier = %d, want 200", s.MultiplierBP)
	}
}

func TestOneActiveSessionPerPlayer(t *testing.T) {
	m, _, _ := newTestMachine()

	if _, _, err := m.CreateSession("alice", TierFree, 0); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, _, err := m.CreateSession("alice", TierFree, 0); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Fatalf("second create: got %v, want ErrSessionAlreadyActive", err)
	}
	// A different player is unaffected.
	if _, _, err := m.CreateSession("bob", TierFree, 0); err != nil {
		t.Fatalf("bob create: %v", err)
	}
}

func TestSeedDeliveryActivatesOnce(t *testing.T) {
	m, src, d := newTestMachine()

	s, _, err := m.CreateSession("alice", TierFree, 0)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	src.FulfillAll(d)

	got, _ := m.Get(s.ID)
	if got.State != StateActive || !got.SeedSet {
		t.Fatalf("after seed: state=%s seed_set=%v", got.State, got.SeedSet)
	}
	schedule := got.Schedule

	// Re-delivery must not change the derived schedule.
	d.DeliverSync("stale-request", engine.Seed{})
	again, _ := m.Get(s.ID)
	if again.Schedule != schedule {
		t.Error("stale delivery altered schedule")
	}
}

func TestLevelChangeFlow(t *testing.T) {
	m, src, d := newTestMachine()

	s, _, _ := m.CreateSession("alice", TierFree, 0)
	src.FulfillAll(d)

	got, _ := m.Get(s.ID)
	// The first threshold always sits below 300, so a score of 300 reaches it.
	th, trigger, err := m.ShouldTriggerLevelChange(s.ID, 300)
	if err != nil || !trigger {
		t.Fatalf("ShouldTriggerLevelChange: trigger=%v err=%v schedule=%v", trigger, err, got.Schedule)
	}
	if th != got.Schedule[0] {
		t.Errorf("trigger returned %+v, want first threshold %+v", th, got.Schedule[0])
	}

	if _, _, err := m.RequestLevelChange("mallory", s.ID, 300); !errors.Is(err, ErrUnauthorizedPlayer) {
		t.Fatalf("foreign level change: got %v", err)
	}

	lcr, reqID, err := m.RequestLevelChange("alice", s.ID, 300)
	if err != nil {
		t.Fatalf("RequestLevelChange: %v", err)
	}
	if lcr.SessionID != s.ID || lcr.ScoreAtRequest != 300 {
		t.Errorf("level request record %+v", lcr)
	}
	pending, _ := m.Get(s.ID)
	if pending.State != StateLevelChangePending {
		t.Errorf("state = %s, want level_change_pending", pending.State)
	}
	if pending.NextThreshold == 0 {
		t.Error("threshold index did not advance")
	}

	d.DeliverSync(reqID, src.PayloadFor(reqID))
	active, _ := m.Get(s.ID)
	if active.State != StateActive {
		t.Errorf("state after fulfillment = %s, want active", active.State)
	}
	fulfilled, ok := m.LevelRequest(lcr.ID)
	if !ok || !fulfilled.Fulfilled {
		t.Fatalf("level request not fulfilled: %+v", fulfilled)
	}
	if fulfilled.Difficulty < 1 || fulfilled.Difficulty > 10 {
		t.Errorf("difficulty %d outside [1, 10]", fulfilled.Difficulty)
	}

	// Second delivery of the same request id is a no-op.
	d.DeliverSync(reqID, src.PayloadFor(reqID))
	after, _ := m.LevelRequest(lcr.ID)
	if after.Difficulty != fulfilled.Difficulty {
		t.Error("re-delivery changed the fulfilled difficulty")
	}
}

func TestEndSessionIdempotenceAndLateCallbacks(t *testing.T) {
	m, src, d := newTestMachine()

	s, _, _ := m.CreateSession("alice", TierFree, 0)

	if err := m.EndSession("mallory", s.ID, 100); !errors.Is(err, ErrUnauthorizedPlayer) {
		t.Fatalf("foreign end: got %v", err)
	}
	if err := m.EndSession("alice", s.ID, 100); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if err := m.EndSession("alice", s.ID, 100); !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("double end: got %v, want ErrSessionNotActive", err)
	}

	// The seed request was still in flight; its late delivery must land as
	// a no-op on the ended session.
	src.FulfillAll(d)
	got, _ := m.Get(s.ID)
	if got.SeedSet {
		t.Error("seed applied to ended session")
	}

	// The player can start over.
	if _, _, err := m.CreateSession("alice", TierBronze, 1_000_000); err != nil {
		t.Fatalf("create after end: %v", err)
	}
}

func TestShouldTriggerExhaustedSchedule(t *testing.T) {
	m, src, d := newTestMachine()
	s, _, _ := m.CreateSession("alice", TierFree, 0)
	src.FulfillAll(d)

	// Consume all five thresholds with a huge score.
	if _, _, err := m.RequestLevelChange("alice", s.ID, 10_000); err != nil {
		t.Fatalf("RequestLevelChange: %v", err)
	}
	src.FulfillAll(d)

	_, trigger, err := m.ShouldTriggerLevelChange(s.ID, 1_000_000)
	if err != nil {
		t.Fatalf("ShouldTriggerLevelChange: %v", err)
	}
	if trigger {
		t.Error("exhausted schedule still triggered")
	}
}
