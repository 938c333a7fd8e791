package api

import (
	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/games"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
	"github.com/sealrush/sealrush-go/internal/verify"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeInvalidSeed   = "invalid_seed"

	// State conflicts
	ErrTypeConflict = "conflict"

	// Missing resources
	ErrTypeNotFound = "not_found"

	// Ownership and capability failures
	ErrTypeUnauthorized = "unauthorized"

	// Payment failures
	ErrTypeInsufficientFunds = "insufficient_funds"

	// Operations attempted before their precondition holds
	ErrTypeNotReady = "not_ready"

	// System errors
	ErrTypeOracleFailure = "oracle_failure"
	ErrTypeInternal      = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryAuth       ErrorCategory = "auth"
	CategoryPayment    ErrorCategory = "payment"
	CategoryNotReady   ErrorCategory = "not_ready"
	CategorySystem     ErrorCategory = "system"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidParams, ErrTypeInvalidSeed:
		return CategoryValidation
	case ErrTypeConflict:
		return CategoryConflict
	case ErrTypeNotFound:
		return CategoryNotFound
	case ErrTypeUnauthorized:
		return CategoryAuth
	case ErrTypeInsufficientFunds:
		return CategoryPayment
	case ErrTypeNotReady:
		return CategoryNotReady
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// CreateSessionRequest starts a paid play session.
type CreateSessionRequest struct {
	Player  string `json:"player"`
	Tier    string `json:"tier"`
	Payment int64  `json:"payment"`
}

// SessionResponse wraps a session with the pending oracle request id.
type SessionResponse struct {
	Session       session.Session `json:"session"`
	RequestID     string          `json:"oracle_request_id,omitempty"`
	EngineVersion string          `json:"engine_version"`
}

// LevelChangeCheckResponse reports whether a threshold has been reached.
type LevelChangeCheckResponse struct {
	Triggered     bool             `json:"triggered"`
	Threshold     engine.Threshold `json:"threshold,omitempty"`
	EngineVersion string           `json:"engine_version"`
}

// LevelChangeRequestBody asks for a mid-session difficulty reroll.
type LevelChangeRequestBody struct {
	Player string `json:"player"`
	Score  uint64 `json:"score"`
}

// LevelChangeResponse wraps a level-change request record.
type LevelChangeResponse struct {
	Request       session.LevelChangeRequest `json:"request"`
	RequestID     string                     `json:"oracle_request_id,omitempty"`
	EngineVersion string                     `json:"engine_version"`
}

// EndSessionRequest ends the caller's session.
type EndSessionRequest struct {
	Player     string `json:"player"`
	FinalScore uint64 `json:"final_score"`
}

// CreateSealedRequest commits an encrypted multiplier against a session.
// Ciphertext is hex; exactly one of delay_seconds or unlock_height applies
// depending on kind.
type CreateSealedRequest struct {
	Player       string `json:"player"`
	Kind         string `json:"kind"`
	DelaySeconds int64  `json:"delay_seconds,omitempty"`
	UnlockHeight uint64 `json:"unlock_height,omitempty"`
	Ciphertext   string `json:"ciphertext"`
}

// SealResponse wraps a sealed session.
type SealResponse struct {
	Seal          seal.Sealed `json:"seal"`
	RequestID     string      `json:"oracle_request_id,omitempty"`
	EngineVersion string      `json:"engine_version"`
}

// SealReadyResponse reports an unlock-condition check.
type SealReadyResponse struct {
	Ready         bool   `json:"ready"`
	EngineVersion string `json:"engine_version"`
}

// EmergencyRevealRequest manually discloses a stuck seal.
type EmergencyRevealRequest struct {
	AdminKey     string `json:"admin_key"`
	MultiplierBP int64  `json:"multiplier_bp"`
}

// SealEventsResponse lists reveal-path events.
type SealEventsResponse struct {
	Events        []seal.Event `json:"events"`
	EngineVersion string       `json:"engine_version"`
}

// ClaimRequest files a claim against a session. Sealed selects the deferred
// path.
type ClaimRequest struct {
	Player    string `json:"player"`
	SessionID uint64 `json:"session_id"`
	Points    uint64 `json:"points"`
	Sealed    bool   `json:"sealed"`
}

// ClaimResponse wraps a claim record, with the amount rendered both in
// micro-tokens and as a decimal token string.
type ClaimResponse struct {
	Claim         claims.Claim `json:"claim"`
	Tokens        string       `json:"tokens"`
	EngineVersion string       `json:"engine_version"`
}

// ClaimsListResponse lists a player's claims.
type ClaimsListResponse struct {
	Claims        []claims.Claim `json:"claims"`
	EngineVersion string         `json:"engine_version"`
}

// RecordGameRequest folds one finished game into progression.
type RecordGameRequest struct {
	Player       string `json:"player"`
	GameID       string `json:"game_id"`
	Score        uint64 `json:"score"`
	Tokens       uint64 `json:"tokens"`
	MultiplierBP int64  `json:"multiplier_bp"`
	Sealed       bool   `json:"sealed"`
}

// RecordGameResponse reports the progression effect of a recorded game.
type RecordGameResponse struct {
	Result        progression.GameResult `json:"result"`
	EngineVersion string                 `json:"engine_version"`
}

// GamesResponse lists the mini-game catalog.
type GamesResponse struct {
	Games         []games.Spec `json:"games"`
	EngineVersion string       `json:"engine_version"`
}

// NextGameRequest asks for a randomness-driven next-game pick.
type NextGameRequest struct {
	Player    string `json:"player"`
	CurrentID string `json:"current_id,omitempty"`
}

// NextGameResponse reports a next-game pick. Game is empty until the
// randomness lands.
type NextGameResponse struct {
	PickID        uint64     `json:"pick_id"`
	RequestID     string     `json:"oracle_request_id,omitempty"`
	Fulfilled     bool       `json:"fulfilled"`
	Game          games.Spec `json:"game,omitempty"`
	EngineVersion string     `json:"engine_version"`
}

// ProfileResponse wraps a player profile and their earned achievements.
type ProfileResponse struct {
	Profile       progression.Profile `json:"profile"`
	Unlocked      []string            `json:"unlocked,omitempty"`
	EngineVersion string              `json:"engine_version"`
}

// RegisterRequest sets a player's username.
type RegisterRequest struct {
	Username string `json:"username"`
}

// LeaderboardResponse lists a ranked board.
type LeaderboardResponse struct {
	Window        progression.Window  `json:"window"`
	Entries       []progression.Entry `json:"entries"`
	EngineVersion string              `json:"engine_version"`
}

// AchievementsResponse lists the achievement catalog.
type AchievementsResponse struct {
	Achievements  []progression.Achievement `json:"achievements"`
	EngineVersion string                    `json:"engine_version"`
}

// VerifySessionResponse reports a session audit.
type VerifySessionResponse struct {
	Result        verify.Result `json:"result"`
	EngineVersion string        `json:"engine_version"`
}

// VerifySeedRequest derives the schedule for an arbitrary seed.
type VerifySeedRequest struct {
	Seed string `json:"seed"`
}

// VerifySeedResponse returns a derived schedule with its seed echoed.
type VerifySeedResponse struct {
	Seed          string            `json:"seed"`
	Schedule      engine.Schedule   `json:"schedule"`
	EngineVersion string            `json:"engine_version"`
	Echo          VerifySeedRequest `json:"echo"`
}

// OracleCallbackRequest is one delivery from an external oracle. Payload is
// the 32-byte value in hex.
type OracleCallbackRequest struct {
	RequestID string `json:"request_id"`
	Payload   string `json:"payload"`
}

// PoolResponse reports the payout pool balance.
type PoolResponse struct {
	Balance       reward.Amount `json:"balance"`
	Tokens        string        `json:"tokens"`
	EngineVersion string        `json:"engine_version"`
}
