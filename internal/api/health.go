package api

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sealrush/sealrush-go/internal/games"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemoryTotal   uint64 `json:"memory_total_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// MetricsResponse represents basic performance metrics
type MetricsResponse struct {
	Timestamp     string     `json:"timestamp"`
	EngineVersion string     `json:"engine_version"`
	Uptime        string     `json:"uptime"`
	System        SystemInfo `json:"system"`
	OraclePending int        `json:"oracle_pending"`
	PoolBalance   int64      `json:"pool_balance"`
	RequestID     string     `json:"request_id,omitempty"`
}

// handleHealthCheck provides comprehensive health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	checks := make(map[string]HealthCheck)
	overallStatus := HealthStatusHealthy

	gameCheck := s.checkGamesHealth()
	checks["games"] = gameCheck
	if gameCheck.Status != HealthStatusHealthy {
		overallStatus = HealthStatusDegraded
	}

	poolCheck := s.checkPoolHealth()
	checks["pool"] = poolCheck
	if poolCheck.Status == HealthStatusDegraded && overallStatus == HealthStatusHealthy {
		overallStatus = HealthStatusDegraded
	}

	oracleCheck := s.checkOracleHealth()
	checks["oracle"] = oracleCheck
	if oracleCheck.Status == HealthStatusDegraded && overallStatus == HealthStatusHealthy {
		overallStatus = HealthStatusDegraded
	}

	response := HealthCheckResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        s.getSystemInfo(),
		RequestID:     requestID,
	}

	statusCode := http.StatusOK
	if overallStatus == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.securityLogger.LogAuditEvent(requestID, "health_check", "system", string(overallStatus))

	s.writeJSON(w, statusCode, response)
}

// handleMetrics provides basic performance metrics endpoint
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	response := MetricsResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		Uptime:        time.Since(s.startTime).String(),
		System:        s.getSystemInfo(),
		OraclePending: s.engine.PendingOracle(),
		PoolBalance:   int64(s.engine.PoolBalance()),
		RequestID:     requestID,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleReadiness provides readiness probe endpoint
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	ready := true
	message := "Ready"

	if len(games.List()) == 0 {
		ready = false
		message = "No games available"
	}

	response := map[string]interface{}{
		"ready":          ready,
		"message":        message,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": EngineVersion,
		"request_id":     requestID,
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	outcome := "ready"
	if !ready {
		outcome = "not_ready"
	}
	s.securityLogger.LogAuditEvent(requestID, "readiness_check", "system", outcome)

	s.writeJSON(w, statusCode, response)
}

// handleLiveness provides liveness probe endpoint
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	response := map[string]interface{}{
		"alive":          true,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": EngineVersion,
		"uptime":         time.Since(s.startTime).String(),
		"request_id":     requestID,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// checkGamesHealth checks if the game catalog is properly loaded
func (s *Server) checkGamesHealth() HealthCheck {
	start := time.Now()

	specs := games.List()
	status := HealthStatusHealthy
	message := fmt.Sprintf("%d games available", len(specs))

	if len(specs) == 0 {
		status = HealthStatusUnhealthy
		message = "No games available"
	}

	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

// checkPoolHealth checks the payout pool balance
func (s *Server) checkPoolHealth() HealthCheck {
	start := time.Now()

	status := HealthStatusHealthy
	balance := s.engine.PoolBalance()
	message := fmt.Sprintf("pool balance %s tokens", balance)

	if balance == 0 {
		status = HealthStatusDegraded
		message = "Payout pool is empty; claims will fail"
	}

	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

// checkOracleHealth reports the outstanding oracle request backlog
func (s *Server) checkOracleHealth() HealthCheck {
	start := time.Now()

	status := HealthStatusHealthy
	pending := s.engine.PendingOracle()
	message := fmt.Sprintf("%d pending oracle requests", pending)

	// A deep backlog usually means deliveries stopped arriving.
	if pending > 1000 {
		status = HealthStatusDegraded
		message = fmt.Sprintf("%d pending oracle requests; deliveries may be stalled", pending)
	}

	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

// getSystemInfo collects system information
func (s *Server) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   m.Alloc,
		MemoryTotal:   m.TotalAlloc,
		MemorySys:     m.Sys,
		GCCycles:      m.NumGC,
	}
}
