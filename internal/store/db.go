package store

import (
	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
)

// DB is the persistence interface. The engine works fully in memory; the
// store is write-through for audit and warm restarts, so every method is a
// straight save or load.
type DB interface {
	Close() error
	Migrate() error

	SaveProfile(p progression.Profile) error
	SaveUnlocks(player string, names []string) error
	LoadProfiles() ([]progression.Profile, map[string][]string, error)

	SaveSession(s session.Session) error
	SaveSeal(s seal.Sealed) error

	SaveClaim(c claims.Claim) error
	ListClaims(player string) ([]claims.Claim, error)

	SaveBoard(w progression.Window, rows []progression.Entry) error
	LoadBoard(w progression.Window) ([]progression.Entry, error)
}
