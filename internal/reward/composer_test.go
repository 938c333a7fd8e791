package reward

import (
	"testing"
)

func TestBaseRewardMinimum(t *testing.T) {
	if got := BaseReward(9); got != 0 {
		t.Errorf("BaseReward(9) = %d, want 0", got)
	}
	if got := BaseReward(10); got != 10_000 {
		t.Errorf("BaseReward(10) = %d, want 10000 micro-tokens", got)
	}
	if got := BaseReward(1000); got != Scale {
		t.Errorf("BaseReward(1000) = %d, want one whole token (%d)", got, Scale)
	}
}

// The worked example from the payout contract: 1000 points on a Gold (2x)
// sealed session at level 10 pays 3.6 tokens.
func TestComposeGoldSealedLevel10(t *testing.T) {
	m := TotalMultiplier(200, true, 10)
	if m != 360 {
		t.Fatalf("TotalMultiplier(200, sealed, 10) = %d, want 360", m)
	}

	got := Compose(1000, 200, true, 10)
	if got != 3_600_000 {
		t.Errorf("Compose = %d micro-tokens, want 3600000", got)
	}
	if got.String() != "3.6" {
		t.Errorf("Compose rendered %q, want \"3.6\"", got.String())
	}
}

func TestTotalMultiplierLayerOrder(t *testing.T) {
	// Session only.
	if m := TotalMultiplier(100, false, 0); m != 100 {
		t.Errorf("bare multiplier = %d, want 100", m)
	}
	// Sealed doubles-and-a-half the base layer.
	if m := TotalMultiplier(100, true, 0); m != 150 {
		t.Errorf("sealed multiplier = %d, want 150", m)
	}
	// Level bonus caps at +100% regardless of level.
	if m := TotalMultiplier(100, false, 50); m != 200 {
		t.Errorf("level-50 multiplier = %d, want 200", m)
	}
	if m := TotalMultiplier(100, false, 99); m != 200 {
		t.Errorf("level-99 multiplier = %d, want 200 (capped)", m)
	}
}

func TestFinalRewardMonotonicInPoints(t *testing.T) {
	prev := Amount(-1)
	for points := uint64(10); points <= 5000; points += 7 {
		r := Compose(points, 200, true, 10)
		if r < prev {
			t.Fatalf("reward decreased at points=%d: %d < %d", points, r, prev)
		}
		prev = r
	}
}

func TestFinalRewardMonotonicInMultiplier(t *testing.T) {
	prev := Amount(-1)
	for bp := int64(100); bp <= 500; bp += 10 {
		r := Compose(1000, bp, false, 0)
		if r < prev {
			t.Fatalf("reward decreased at multiplier=%d: %d < %d", bp, r, prev)
		}
		prev = r
	}
}

func TestFinalRewardMonotonicInLevel(t *testing.T) {
	prev := Amount(-1)
	for level := 1; level <= MaxLevel; level++ {
		r := Compose(1000, 200, false, level)
		if r < prev {
			t.Fatalf("reward decreased at level=%d: %d < %d", level, r, prev)
		}
		prev = r
	}
}
