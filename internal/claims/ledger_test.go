package claims

import (
	"errors"
	"testing"
	"time"

	"github.com/sealrush/sealrush-go/internal/oracle"
	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
)

type stubProgression struct {
	level   int
	claimed map[string]int64
}

func (s *stubProgression) Level(player string) int { return s.level }
func (s *stubProgression) AddClaimed(player string, amount int64) {
	if s.claimed == nil {
		s.claimed = make(map[string]int64)
	}
	s.claimed[player] += amount
}

func newTestLedger(t *testing.T, balance reward.Amount, level int) (*Ledger, *seal.Registry, *MemoryPool, *stubProgression) {
	t.Helper()
	pool := NewMemoryPool(balance)
	registry := seal.NewRegistry(oracle.NewStubSource(), oracle.NewCorrelator(), seal.NewManualChain(0), "admin", nil)
	prog := &stubProgression{level: level}
	return NewLedger(pool, registry, prog, nil), registry, pool, prog
}

func TestClaimRegularPaysOut(t *testing.T) {
	l, _, pool, prog := newTestLedger(t, 100_000_000, 10)

	// 1000 points, 2x session, level 10: 1 token * 200 * 1.2 = 2.4 tokens.
	c, err := l.ClaimRegular("alice", 1000, 1, 200)
	if err != nil {
		t.Fatalf("ClaimRegular: %v", err)
	}
	if c.Amount != 2_400_000 {
		t.Errorf("amount = %d, want 2400000", c.Amount)
	}
	if !c.Claimed {
		t.Error("regular claim not settled")
	}
	if pool.PaidTo("alice") != c.Amount {
		t.Errorf("pool paid %d, want %d", pool.PaidTo("alice"), c.Amount)
	}
	if prog.claimed["alice"] != int64(c.Amount) {
		t.Errorf("total claimed %d, want %d", prog.claimed["alice"], c.Amount)
	}
}

func TestClaimRegularInsufficientPoints(t *testing.T) {
	l, _, pool, _ := newTestLedger(t, 100_000_000, 1)

	before := pool.Balance()
	if _, err := l.ClaimRegular("alice", 9, 1, 100); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("got %v, want ErrInsufficientPoints", err)
	}
	if pool.Balance() != before {
		t.Error("failed claim mutated the pool")
	}
	if len(l.For("alice")) != 0 {
		t.Error("failed claim left a record")
	}
}

func TestClaimRegularPoolUnderfunded(t *testing.T) {
	l, _, _, _ := newTestLedger(t, 1_000, 1)
	if _, err := l.ClaimRegular("alice", 1000, 1, 100); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
}

func TestSealedClaimLifecycle(t *testing.T) {
	l, registry, pool, _ := newTestLedger(t, 100_000_000, 10)

	var key [32]byte
	sealed, _, err := registry.CreateSealed("alice", 7, seal.KindTime, time.Hour, 0, seal.EncryptMultiplier(400, key))
	if err != nil {
		t.Fatalf("CreateSealed: %v", err)
	}

	if _, err := l.ClaimSealed("mallory", 1000, 7); !errors.Is(err, ErrUnauthorizedClaim) {
		t.Fatalf("foreign sealed claim: got %v", err)
	}
	if _, err := l.ClaimSealed("alice", 1000, 99); !errors.Is(err, seal.ErrSealNotFound) {
		t.Fatalf("sealed claim without seal: got %v", err)
	}

	c, err := l.ClaimSealed("alice", 1000, 7)
	if err != nil {
		t.Fatalf("ClaimSealed: %v", err)
	}
	if c.Claimed || c.MultiplierBP != 0 {
		t.Errorf("pending claim: claimed=%v multiplier=%d", c.Claimed, c.MultiplierBP)
	}

	// Settle before reveal: rejected.
	if _, err := l.ProcessSealedClaim(c.ID); !errors.Is(err, ErrSealNotRevealed) {
		t.Fatalf("premature process: got %v, want ErrSealNotRevealed", err)
	}

	// Disclose via the emergency path (the registry clock is jumped past
	// the wait window), then settle.
	registry.SetNow(func() time.Time { return sealed.CreatedAt.Add(seal.EmergencyWait + time.Minute) })
	if err := registry.EmergencyReveal("admin", sealed.ID, 400); err != nil {
		t.Fatalf("EmergencyReveal: %v", err)
	}

	settled, err := l.ProcessSealedClaim(c.ID)
	if err != nil {
		t.Fatalf("ProcessSealedClaim: %v", err)
	}
	// 1 token base * 400bp * 1.2 level bonus = 4.8 tokens.
	if settled.Amount != 4_800_000 {
		t.Errorf("settled amount = %d, want 4800000", settled.Amount)
	}

	// Exactly-once: a second process fails and pays nothing more.
	paid := pool.PaidTo("alice")
	if _, err := l.ProcessSealedClaim(c.ID); !errors.Is(err, ErrClaimAlreadyProcessed) {
		t.Fatalf("double process: got %v, want ErrClaimAlreadyProcessed", err)
	}
	if pool.PaidTo("alice") != paid {
		t.Error("double process re-transferred funds")
	}
}

func TestProcessUnknownClaim(t *testing.T) {
	l, _, _, _ := newTestLedger(t, 1_000_000, 1)
	if _, err := l.ProcessSealedClaim(42); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("got %v, want ErrClaimNotFound", err)
	}
}
