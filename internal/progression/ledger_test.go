package progression

import (
	"errors"
	"testing"
)

func TestGameXPFormula(t *testing.T) {
	// score 1000, tokens 20, 2x multiplier, sealed:
	// 100 + 100 + 100*200/100 + 100*20/100 = 100 + 100 + 200 + 20 = 420
	if xp := GameXP(1000, 20, 200, true); xp != 420 {
		t.Errorf("GameXP = %d, want 420", xp)
	}
	// Unsealed drops the 20% layer.
	if xp := GameXP(1000, 20, 200, false); xp != 400 {
		t.Errorf("GameXP unsealed = %d, want 400", xp)
	}
}

func TestGameXPNegativeMultiplier(t *testing.T) {
	// A hostile multiplier must not wrap into an enormous XP grant.
	xp := GameXP(1000, 0, -1, false)
	if xp != 100 {
		t.Errorf("GameXP(1000, 0, -1) = %d, want 100 (score share only)", xp)
	}
	if level := LevelFromXP(xp); level != 1 {
		t.Errorf("level = %d, want 1", level)
	}
}

func TestLevelFromXP(t *testing.T) {
	cases := []struct {
		xp   uint64
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{3999, 2},
		{4000, 3},
		{9_000_000, 95},
		{100_000_000_000, MaxLevel},
	}
	for _, c := range cases {
		if got := LevelFromXP(c.xp); got != c.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestLevelMonotoneInXP(t *testing.T) {
	prev := 0
	for xp := uint64(0); xp < 2_000_000; xp += 997 {
		level := LevelFromXP(xp)
		if level < prev {
			t.Fatalf("level decreased at xp=%d: %d < %d", xp, level, prev)
		}
		prev = level
	}
}

func TestRecordGameResultAccumulates(t *testing.T) {
	l := NewLedger(nil)

	r1 := l.RecordGameResult("alice", 500, 10, 100, false)
	if r1.XPGained == 0 {
		t.Error("no XP from first game")
	}

	l.RecordGameResult("alice", 300, 5, 100, false)
	p, ok := l.Get("alice")
	if !ok {
		t.Fatal("profile missing")
	}
	if p.TotalScore != 800 || p.GamesPlayed != 2 || p.Tokens != 15 {
		t.Errorf("totals: score=%d games=%d tokens=%d", p.TotalScore, p.GamesPlayed, p.Tokens)
	}
	if p.BestScore != 500 {
		t.Errorf("best score = %d, want 500", p.BestScore)
	}
}

func TestFirstGameUnlocksAchievement(t *testing.T) {
	l := NewLedger(nil)
	r := l.RecordGameResult("alice", 100, 0, 100, false)

	found := false
	for _, u := range r.Unlocked {
		if u.Achievement == "first_run" {
			found = true
		}
	}
	if !found {
		t.Fatalf("first_run not unlocked: %+v", r.Unlocked)
	}

	// Second game must not unlock it again.
	r2 := l.RecordGameResult("alice", 100, 0, 100, false)
	for _, u := range r2.Unlocked {
		if u.Achievement == "first_run" {
			t.Error("first_run unlocked twice")
		}
	}

	names := l.UnlockedBy("alice")
	if len(names) == 0 {
		t.Error("unlocked set empty")
	}
}

func TestAchievementXPCascadesIntoLevel(t *testing.T) {
	l := NewLedger(nil)
	// A big single game: raw XP plus unlock rewards should land above the
	// raw-XP level.
	r := l.RecordGameResult("alice", 5000, 1000, 300, true)
	p, _ := l.Get("alice")
	if p.Level != r.Level {
		t.Errorf("result level %d != profile level %d", r.Level, p.Level)
	}
	if p.Level <= 1 && !r.LeveledUp {
		t.Errorf("expected level-up, got level=%d", p.Level)
	}
	rawLevel := LevelFromXP(GameXP(5000, 1000, 300, true))
	if p.Level < rawLevel {
		t.Errorf("achievement XP lost: level %d < raw level %d", p.Level, rawLevel)
	}
}

func TestLevelUpSignal(t *testing.T) {
	l := NewLedger(nil)
	var from, to int
	l.OnLevelUp(func(player string, f, tto int) { from, to = f, tto })

	l.RecordGameResult("alice", 5000, 1000, 300, true)
	if to <= from {
		t.Errorf("level-up signal from=%d to=%d", from, to)
	}
}

func TestUsernameUniqueness(t *testing.T) {
	l := NewLedger(nil)
	if _, err := l.Register("alice", "Speedy"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := l.Register("bob", "speedy"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v, want ErrUsernameTaken", err)
	}
	// Re-registering your own name is fine.
	if _, err := l.Register("alice", "Speedy"); err != nil {
		t.Fatalf("self re-register: %v", err)
	}
}

func TestAddClaimed(t *testing.T) {
	l := NewLedger(nil)
	l.AddClaimed("alice", 3_600_000)
	l.AddClaimed("alice", 400_000)
	p, _ := l.Get("alice")
	if p.TotalClaimed != 4_000_000 {
		t.Errorf("total claimed = %d, want 4000000", p.TotalClaimed)
	}
}
