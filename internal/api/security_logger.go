package api

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"time"
)

// SecurityLogger handles security-conscious logging. Oracle payloads, seal
// ciphertexts, and admin capabilities are never logged raw; only hashes or
// redaction markers appear.
type SecurityLogger struct {
	logger *log.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: log.New(os.Stdout, "[SECURITY] ", log.LstdFlags|log.LUTC),
	}
}

// LogOracleDelivery logs an inbound oracle callback with the payload hashed.
func (sl *SecurityLogger) LogOracleDelivery(requestID, oracleRequestID, payload string) {
	sl.logger.Printf(
		"oracle_delivery request_id=%s oracle_request_id=%s payload_hash=%s engine_version=%s timestamp=%s",
		requestID,
		oracleRequestID,
		sl.hashValue(payload),
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogEmergencyReveal logs a privileged reveal attempt. The capability is
// never logged, only whether the attempt succeeded.
func (sl *SecurityLogger) LogEmergencyReveal(requestID string, sealID uint64, multiplierBP int64, outcome string) {
	sl.logger.Printf(
		"emergency_reveal request_id=%s seal_id=%d multiplier_bp=%d outcome=%s engine_version=%s timestamp=%s",
		requestID,
		sealID,
		multiplierBP,
		outcome,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSecurityEvent logs security-related events (failed validations, suspicious activity)
func (sl *SecurityLogger) LogSecurityEvent(requestID, eventType, description, remoteAddr string) {
	sl.logger.Printf(
		"security_event request_id=%s type=%s description=%q remote_addr=%s engine_version=%s timestamp=%s",
		requestID,
		eventType,
		description,
		remoteAddr,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogAuditEvent logs audit events for compliance and debugging
func (sl *SecurityLogger) LogAuditEvent(requestID, action, resource, outcome string) {
	sl.logger.Printf(
		"audit_event request_id=%s action=%s resource=%s outcome=%s engine_version=%s timestamp=%s",
		requestID,
		action,
		resource,
		outcome,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemStartup logs system startup information
func (sl *SecurityLogger) LogSystemStartup(addr string, config map[string]interface{}) {
	sl.logger.Printf(
		"system_startup addr=%s config=%+v engine_version=%s git_commit=%s build_time=%s timestamp=%s",
		addr,
		config,
		EngineVersion,
		GitCommit,
		BuildTime,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemShutdown logs system shutdown information
func (sl *SecurityLogger) LogSystemShutdown(reason string, uptime time.Duration) {
	sl.logger.Printf(
		"system_shutdown reason=%s uptime=%v engine_version=%s timestamp=%s",
		reason,
		uptime,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// hashValue creates a SHA256 hash of a sensitive value for logging (first 16
// chars for brevity)
func (sl *SecurityLogger) hashValue(v string) string {
	if v == "" {
		return "empty"
	}
	hash := sha256.Sum256([]byte(v))
	return hex.EncodeToString(hash[:])[:16]
}
