package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sealrush/sealrush-go/internal/core"
	"github.com/sealrush/sealrush-go/internal/games"
)

// Server handles HTTP requests
type Server struct {
	engine         *core.Engine
	errorHandler   *ErrorHandler
	logger         *log.Logger
	securityLogger *SecurityLogger
	startTime      time.Time
}

// NewServer creates a new API server over an assembled engine.
func NewServer(engine *core.Engine) *Server {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	errorHandler := NewErrorHandler(logger)
	securityLogger := NewSecurityLogger()

	server := &Server{
		engine:         engine,
		errorHandler:   errorHandler,
		logger:         logger,
		securityLogger: securityLogger,
		startTime:      time.Now(),
	}

	securityLogger.LogSystemStartup("unknown", map[string]interface{}{
		"games_available": len(games.List()),
		"stub_oracle":     engine.Stub() != nil,
	})

	return server
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.SecurityLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/version", s.handleVersion)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/level-change", s.handleLevelChangeCheck)
		r.Post("/sessions/{id}/level-change", s.handleRequestLevelChange)
		r.Post("/sessions/{id}/end", s.handleEndSession)
		r.Post("/sessions/{id}/seal", s.handleCreateSealed)
		r.Get("/level-changes/{id}", s.handleGetLevelChange)

		r.Get("/seals/{id}", s.handleGetSeal)
		r.Get("/seals/{id}/ready", s.handleSealReady)
		r.Post("/seals/{id}/emergency-reveal", s.handleEmergencyReveal)
		r.Get("/seals/events", s.handleSealEvents)

		r.Post("/claims", s.handleCreateClaim)
		r.Get("/claims/{id}", s.handleGetClaim)
		r.Post("/claims/{id}/process", s.handleProcessClaim)

		r.Get("/games", s.handleListGames)
		r.Post("/games/record", s.handleRecordGame)
		r.Post("/games/next", s.handleNextGame)
		r.Get("/games/next/{id}", s.handleGetNextGame)

		r.Get("/players/{player}/session", s.handleActiveSession)
		r.Get("/players/{player}/profile", s.handleGetProfile)
		r.Post("/players/{player}/username", s.handleRegister)
		r.Get("/players/{player}/claims", s.handleListClaims)

		r.Get("/leaderboard/{window}", s.handleLeaderboard)
		r.Get("/achievements", s.handleListAchievements)

		r.Get("/verify/sessions/{id}", s.handleVerifySession)
		r.Post("/verify/seed", s.handleVerifySeed)

		r.Post("/oracle/callback", s.handleOracleCallback)
		r.Get("/pool", s.handlePool)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleVersion returns build version information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}
