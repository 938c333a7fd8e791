// Package verify re-derives session threshold schedules for independent
// audit. Because the schedule is a pure function of the seed, any mismatch
// between the recorded schedule and the re-derivation is proof of
// tampering.
package verify

import (
	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/session"
)

// SessionSource is the read surface needed from the session machine.
type SessionSource interface {
	Get(sessionID uint64) (session.Session, bool)
}

// Result reports one session audit.
type Result struct {
	SessionID uint64          `json:"session_id"`
	Seed      string          `json:"seed"`
	Schedule  engine.Schedule `json:"schedule"`
	Matches   bool            `json:"matches"`
}

// Session re-derives a session's schedule from its recorded seed and
// compares it with the schedule the session actually played.
func Session(src SessionSource, sessionID uint64) (Result, error) {
	s, ok := src.Get(sessionID)
	if !ok {
		return Result{}, session.ErrSessionNotFound
	}
	if !s.SeedSet {
		return Result{}, session.ErrSeedNotDelivered
	}

	derived := engine.DeriveSchedule(s.Seed)
	return Result{
		SessionID: sessionID,
		Seed:      s.Seed.String(),
		Schedule:  derived,
		Matches:   derived == s.Schedule,
	}, nil
}

// Seed derives the schedule for an arbitrary hex seed, letting players
// check the derivation rules against published seeds.
func Seed(seedHex string) (engine.Schedule, error) {
	seed, err := engine.ParseSeed(seedHex)
	if err != nil {
		return engine.Schedule{}, err
	}
	return engine.DeriveSchedule(seed), nil
}
