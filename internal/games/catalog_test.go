package games

import (
	"testing"

	"github.com/sealrush/sealrush-go/internal/engine"
)

func TestCatalogIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, g := range List() {
		if seen[g.ID] {
			t.Errorf("duplicate game id %q", g.ID)
		}
		seen[g.ID] = true
	}
}

func TestByID(t *testing.T) {
	g, ok := ByID("coin-dash")
	if !ok || g.Name != "Coin Dash" {
		t.Errorf("ByID(coin-dash) = %+v, %v", g, ok)
	}
	if _, ok := ByID("no-such-game"); ok {
		t.Error("unknown id resolved")
	}
}

func TestPickNextDeterministicAndNoRepeat(t *testing.T) {
	var random engine.Seed
	random[7] = 0x2a

	first := PickNext(random, "coin-dash")
	second := PickNext(random, "coin-dash")
	if first.ID != second.ID {
		t.Errorf("same random picked %q then %q", first.ID, second.ID)
	}
	if first.ID == "coin-dash" {
		t.Error("picked the game the player just finished")
	}
}
