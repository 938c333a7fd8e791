package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestProfileRoundTrip(t *testing.T) {
	db := newTestDB(t)

	p := progression.Profile{
		Player:      "alice",
		Username:    "Speedy",
		TotalScore:  1234,
		BestScore:   500,
		GamesPlayed: 3,
		Tokens:      42,
		Level:       2,
		XP:          1500,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := db.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	// Upsert path.
	p.TotalScore = 2000
	if err := db.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile upsert: %v", err)
	}
	if err := db.SaveUnlocks("alice", []string{"first_run", "collector"}); err != nil {
		t.Fatalf("SaveUnlocks: %v", err)
	}
	// Duplicate unlock save is ignored.
	if err := db.SaveUnlocks("alice", []string{"first_run"}); err != nil {
		t.Fatalf("SaveUnlocks duplicate: %v", err)
	}

	profiles, unlocks, err := db.LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("loaded %d profiles, want 1", len(profiles))
	}
	if profiles[0].TotalScore != 2000 || profiles[0].Username != "Speedy" {
		t.Errorf("loaded profile %+v", profiles[0])
	}
	if len(unlocks["alice"]) != 2 {
		t.Errorf("unlocks = %v, want 2 names", unlocks["alice"])
	}
}

func TestSessionAndSealSave(t *testing.T) {
	db := newTestDB(t)

	s := session.Session{
		ID:           1,
		Player:       "alice",
		TierName:     "GOLD",
		EntryCost:    5_000_000,
		MultiplierBP: 200,
		State:        session.StateEnded,
		SeedSet:      true,
		FinalScore:   900,
		CreatedAt:    time.Now().UTC(),
		EndedAt:      time.Now().UTC(),
	}
	if err := db.SaveSession(s); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	sl := seal.Sealed{
		ID:            1,
		Player:        "alice",
		GameSessionID: 1,
		Kind:          seal.KindTime,
		UnlockTime:    time.Now().UTC().Add(time.Hour),
		State:         seal.StateRevealed,
		RevealedBP:    400,
		CreatedAt:     time.Now().UTC(),
		RevealedAt:    time.Now().UTC(),
	}
	if err := db.SaveSeal(sl); err != nil {
		t.Fatalf("SaveSeal: %v", err)
	}
	// Upsert after a state change.
	sl.State = seal.StateEmergencyRevealed
	if err := db.SaveSeal(sl); err != nil {
		t.Fatalf("SaveSeal upsert: %v", err)
	}
}

func TestClaimRoundTrip(t *testing.T) {
	db := newTestDB(t)

	c := claims.Claim{
		ID:           1,
		Player:       "alice",
		Points:       1000,
		SessionID:    7,
		SealID:       2,
		Base:         1_000_000,
		MultiplierBP: 360,
		Sealed:       true,
		Claimed:      true,
		Amount:       3_600_000,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		SettledAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := db.SaveClaim(c); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	got, err := db.ListClaims("alice")
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("listed %d claims, want 1", len(got))
	}
	if got[0].Amount != c.Amount || !got[0].Sealed || !got[0].Claimed {
		t.Errorf("loaded claim %+v", got[0])
	}
}

func TestBoardSnapshot(t *testing.T) {
	db := newTestDB(t)

	rows := []progression.Entry{
		{Player: "alice", Name: "Speedy", Score: 900, At: time.Now().UTC().Truncate(time.Second)},
		{Player: "bob", Name: "Slow", Score: 100, At: time.Now().UTC().Truncate(time.Second)},
	}
	if err := db.SaveBoard(progression.WindowAllTime, rows); err != nil {
		t.Fatalf("SaveBoard: %v", err)
	}
	// Replacing the snapshot drops old rows.
	if err := db.SaveBoard(progression.WindowAllTime, rows[:1]); err != nil {
		t.Fatalf("SaveBoard replace: %v", err)
	}

	got, err := db.LoadBoard(progression.WindowAllTime)
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if len(got) != 1 || got[0].Player != "alice" {
		t.Errorf("loaded board %+v", got)
	}
}
