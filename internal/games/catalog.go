// Package games holds the catalog of playable mini-games. Rendering and
// input handling live entirely in the client; the engine only needs stable
// identifiers and the deterministic next-game selection that the
// next-game-selection randomness purpose resolves against.
package games

import (
	"encoding/binary"
	"errors"

	"github.com/sealrush/sealrush-go/internal/engine"
)

// ErrUnknownGame is returned when an id does not name a catalog game.
var ErrUnknownGame = errors.New("unknown game")

// Spec describes one mini-game.
type Spec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// ScoreUnit labels what a point means in this game, for UI copy.
	ScoreUnit string `json:"score_unit"`
}

var catalog = []Spec{
	{ID: "coin-dash", Name: "Coin Dash", ScoreUnit: "coins"},
	{ID: "gem-stack", Name: "Gem Stack", ScoreUnit: "gems"},
	{ID: "rune-miner", Name: "Rune Miner", ScoreUnit: "runes"},
	{ID: "sky-hopper", Name: "Sky Hopper", ScoreUnit: "platforms"},
}

// List returns the catalog in its canonical order.
func List() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a game by its identifier.
func ByID(id string) (Spec, bool) {
	for _, g := range catalog {
		if g.ID == id {
			return g, true
		}
	}
	return Spec{}, false
}

// PickNext maps an oracle random value onto the catalog, skipping the game
// the player just finished so a rotation never repeats back-to-back. The
// mapping is pure: the same random value and current game always select the
// same next game.
func PickNext(random engine.Seed, currentID string) Spec {
	candidates := make([]Spec, 0, len(catalog))
	for _, g := range catalog {
		if g.ID != currentID {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		candidates = List()
	}
	idx := binary.BigEndian.Uint64(random[:8]) % uint64(len(candidates))
	return candidates[idx]
}
