package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/engine"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/reward"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
)

// decodeJSON decodes a request body, writing a validation error on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// idParam parses a uint64 URL parameter, writing a validation error on
// failure.
func (s *Server) idParam(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, name, "must be an unsigned integer")
		return 0, false
	}
	return id, true
}

// --- sessions ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}
	tier, err := session.ParseTier(req.Tier)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	sess, reqID, err := s.engine.CreateSession(req.Player, tier, reward.Amount(req.Payment))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.securityLogger.LogAuditEvent(middleware.GetReqID(r.Context()), "create_session", "session", "created")
	s.writeJSON(w, http.StatusCreated, SessionResponse{
		Session:       sess,
		RequestID:     reqID,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	sess, found := s.engine.Session(id)
	if !found {
		s.errorHandler.HandleError(w, r, session.ErrSessionNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{Session: sess, EngineVersion: EngineVersion})
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	sess, found := s.engine.ActiveSession(player)
	if !found {
		s.errorHandler.HandleError(w, r, session.ErrSessionNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{Session: sess, EngineVersion: EngineVersion})
}

func (s *Server) handleLevelChangeCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	score, err := strconv.ParseUint(r.URL.Query().Get("score"), 10, 64)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, "score", "must be an unsigned integer")
		return
	}

	th, triggered, err := s.engine.ShouldTriggerLevelChange(id, score)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, LevelChangeCheckResponse{
		Triggered:     triggered,
		Threshold:     th,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleRequestLevelChange(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	var req LevelChangeRequestBody
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}

	lcr, reqID, err := s.engine.RequestLevelChange(req.Player, id, req.Score)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, LevelChangeResponse{
		Request:       lcr,
		RequestID:     reqID,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetLevelChange(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	lcr, found := s.engine.LevelRequest(id)
	if !found {
		s.errorHandler.HandleError(w, r, session.ErrLevelChangeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, LevelChangeResponse{Request: lcr, EngineVersion: EngineVersion})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	var req EndSessionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}

	if err := s.engine.EndSession(req.Player, id, req.FinalScore); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	sess, _ := s.engine.Session(id)
	s.securityLogger.LogAuditEvent(middleware.GetReqID(r.Context()), "end_session", "session", "ended")
	s.writeJSON(w, http.StatusOK, SessionResponse{Session: sess, EngineVersion: EngineVersion})
}

// --- seals ---

func (s *Server) handleCreateSealed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	var req CreateSealedRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}
	kind := seal.Kind(req.Kind)
	if kind != seal.KindTime && kind != seal.KindBlock {
		s.errorHandler.HandleValidationError(w, r, "kind", `must be "time" or "block"`)
		return
	}
	ciphertext, err := hex.DecodeString(req.Ciphertext)
	if err != nil || len(ciphertext) == 0 {
		s.errorHandler.HandleValidationError(w, r, "ciphertext", "must be non-empty hex")
		return
	}

	sealed, reqID, err := s.engine.CreateSealed(req.Player, id, kind, time.Duration(req.DelaySeconds)*time.Second, req.UnlockHeight, ciphertext)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, SealResponse{
		Seal:          sealed,
		RequestID:     reqID,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetSeal(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	sealed, found := s.engine.Seal(id)
	if !found {
		s.errorHandler.HandleError(w, r, seal.ErrSealNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, SealResponse{Seal: sealed, EngineVersion: EngineVersion})
}

func (s *Server) handleSealReady(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	ready, err := s.engine.IsReadyToReveal(id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SealReadyResponse{Ready: ready, EngineVersion: EngineVersion})
}

func (s *Server) handleEmergencyReveal(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	var req EmergencyRevealRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	requestID := middleware.GetReqID(r.Context())
	if err := s.engine.EmergencyReveal(seal.Capability(req.AdminKey), id, req.MultiplierBP); err != nil {
		s.securityLogger.LogEmergencyReveal(requestID, id, req.MultiplierBP, "denied")
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.securityLogger.LogEmergencyReveal(requestID, id, req.MultiplierBP, "revealed")

	sealed, _ := s.engine.Seal(id)
	s.writeJSON(w, http.StatusOK, SealResponse{Seal: sealed, EngineVersion: EngineVersion})
}

func (s *Server) handleSealEvents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, SealEventsResponse{
		Events:        s.engine.SealEvents(),
		EngineVersion: EngineVersion,
	})
}

// --- claims ---

func (s *Server) handleCreateClaim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}

	var (
		claim claims.Claim
		err   error
	)
	if req.Sealed {
		claim, err = s.engine.ClaimSealed(req.Player, req.SessionID, req.Points)
	} else {
		claim, err = s.engine.ClaimRegular(req.Player, req.SessionID, req.Points)
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.securityLogger.LogAuditEvent(middleware.GetReqID(r.Context()), "create_claim", "claim", "recorded")
	s.writeJSON(w, http.StatusCreated, ClaimResponse{
		Claim:         claim,
		Tokens:        claim.Amount.String(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	claim, found := s.engine.Claim(id)
	if !found {
		s.errorHandler.HandleError(w, r, claims.ErrClaimNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, ClaimResponse{
		Claim:         claim,
		Tokens:        claim.Amount.String(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleProcessClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	claim, err := s.engine.ProcessSealedClaim(id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.securityLogger.LogAuditEvent(middleware.GetReqID(r.Context()), "process_claim", "claim", "settled")
	s.writeJSON(w, http.StatusOK, ClaimResponse{
		Claim:         claim,
		Tokens:        claim.Amount.String(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	s.writeJSON(w, http.StatusOK, ClaimsListResponse{
		Claims:        s.engine.ClaimsFor(player),
		EngineVersion: EngineVersion,
	})
}

// --- games and progression ---

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GamesResponse{
		Games:         s.engine.Games(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleRecordGame(w http.ResponseWriter, r *http.Request) {
	var req RecordGameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}

	result, err := s.engine.RecordGame(req.Player, req.GameID, req.Score, req.Tokens, req.MultiplierBP, req.Sealed)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RecordGameResponse{Result: result, EngineVersion: EngineVersion})
}

func (s *Server) handleNextGame(w http.ResponseWriter, r *http.Request) {
	var req NextGameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.errorHandler.HandleValidationError(w, r, "player", "player is required")
		return
	}

	pickID, reqID, err := s.engine.RequestNextGame(req.Player, req.CurrentID)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, NextGameResponse{
		PickID:        pickID,
		RequestID:     reqID,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetNextGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	pick, fulfilled, found := s.engine.NextGame(id)
	if !found {
		s.errorHandler.HandleValidationError(w, r, "id", "unknown next-game pick")
		return
	}
	s.writeJSON(w, http.StatusOK, NextGameResponse{
		PickID:        id,
		Fulfilled:     fulfilled,
		Game:          pick,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	p, found := s.engine.Profile(player)
	if !found {
		s.errorHandler.HandleError(w, r, progression.ErrProfileNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, ProfileResponse{
		Profile:       p,
		Unlocked:      s.engine.UnlockedBy(player),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	var req RegisterRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || len(req.Username) > 32 {
		s.errorHandler.HandleValidationError(w, r, "username", "must be 1-32 characters")
		return
	}

	p, err := s.engine.Register(player, req.Username)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProfileResponse{
		Profile:       p,
		Unlocked:      s.engine.UnlockedBy(player),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	window, ok := progression.ParseWindow(chi.URLParam(r, "window"))
	if !ok {
		s.errorHandler.HandleValidationError(w, r, "window", `must be "all_time", "weekly", or "daily"`)
		return
	}
	entries, _ := s.engine.Leaderboard(window)
	s.writeJSON(w, http.StatusOK, LeaderboardResponse{
		Window:        window,
		Entries:       entries,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, AchievementsResponse{
		Achievements:  s.engine.Achievements(),
		EngineVersion: EngineVersion,
	})
}

// --- verification ---

func (s *Server) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := s.engine.VerifySession(id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.securityLogger.LogAuditEvent(middleware.GetReqID(r.Context()), "verify_session", "session", "audited")
	s.writeJSON(w, http.StatusOK, VerifySessionResponse{Result: result, EngineVersion: EngineVersion})
}

func (s *Server) handleVerifySeed(w http.ResponseWriter, r *http.Request) {
	var req VerifySeedRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	schedule, err := s.engine.VerifySeed(req.Seed)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, "seed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, VerifySeedResponse{
		Seed:          req.Seed,
		Schedule:      schedule,
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

// --- oracle ---

func (s *Server) handleOracleCallback(w http.ResponseWriter, r *http.Request) {
	var req OracleCallbackRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.RequestID == "" {
		s.errorHandler.HandleValidationError(w, r, "request_id", "request_id is required")
		return
	}
	payload, err := engine.ParseSeed(req.Payload)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, "payload", "must be 32 bytes of hex")
		return
	}

	requestID := middleware.GetReqID(r.Context())
	s.securityLogger.LogOracleDelivery(requestID, req.RequestID, req.Payload)

	// Synchronous processing: the delivery's effect is visible as soon as
	// the callback returns. Unknown or duplicate ids are absorbed.
	s.engine.Dispatcher().DeliverSync(req.RequestID, payload)
	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted":       true,
		"engine_version": EngineVersion,
	})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	balance := s.engine.PoolBalance()
	s.writeJSON(w, http.StatusOK, PoolResponse{
		Balance:       balance,
		Tokens:        balance.String(),
		EngineVersion: EngineVersion,
	})
}
