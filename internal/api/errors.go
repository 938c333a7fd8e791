package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sealrush/sealrush-go/internal/claims"
	"github.com/sealrush/sealrush-go/internal/games"
	"github.com/sealrush/sealrush-go/internal/progression"
	"github.com/sealrush/sealrush-go/internal/seal"
	"github.com/sealrush/sealrush-go/internal/session"
)

// writeJSONError writes JSON error response
func writeJSONError(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]interface{}
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// mapping pins every sentinel error the core surfaces to one HTTP status
// and error type. Unlisted errors fall through to 500/internal.
type mapping struct {
	status  int
	errType string
}

var errorMappings = []struct {
	err error
	m   mapping
}{
	// Validation
	{session.ErrUnknownTier, mapping{http.StatusBadRequest, ErrTypeValidation}},
	{seal.ErrInvalidMultiplierRange, mapping{http.StatusBadRequest, ErrTypeValidation}},
	{seal.ErrNonFutureCondition, mapping{http.StatusBadRequest, ErrTypeValidation}},
	{claims.ErrInsufficientPoints, mapping{http.StatusBadRequest, ErrTypeValidation}},
	{progression.ErrInvalidMultiplier, mapping{http.StatusBadRequest, ErrTypeValidation}},

	// Conflicts
	{session.ErrSessionAlreadyActive, mapping{http.StatusConflict, ErrTypeConflict}},
	{session.ErrSessionNotActive, mapping{http.StatusConflict, ErrTypeConflict}},
	{seal.ErrSessionAlreadySealed, mapping{http.StatusConflict, ErrTypeConflict}},
	{seal.ErrAlreadyRevealed, mapping{http.StatusConflict, ErrTypeConflict}},
	{claims.ErrClaimAlreadyProcessed, mapping{http.StatusConflict, ErrTypeConflict}},
	{progression.ErrUsernameTaken, mapping{http.StatusConflict, ErrTypeConflict}},

	// Missing resources
	{session.ErrSessionNotFound, mapping{http.StatusNotFound, ErrTypeNotFound}},
	{session.ErrLevelChangeNotFound, mapping{http.StatusNotFound, ErrTypeNotFound}},
	{seal.ErrSealNotFound, mapping{http.StatusNotFound, ErrTypeNotFound}},
	{claims.ErrClaimNotFound, mapping{http.StatusNotFound, ErrTypeNotFound}},
	{progression.ErrProfileNotFound, mapping{http.StatusNotFound, ErrTypeNotFound}},
	{games.ErrUnknownGame, mapping{http.StatusNotFound, ErrTypeNotFound}},

	// Ownership and capability
	{session.ErrUnauthorizedPlayer, mapping{http.StatusForbidden, ErrTypeUnauthorized}},
	{claims.ErrUnauthorizedClaim, mapping{http.StatusForbidden, ErrTypeUnauthorized}},
	{seal.ErrBadCapability, mapping{http.StatusForbidden, ErrTypeUnauthorized}},

	// Payment
	{session.ErrInsufficientEntryFee, mapping{http.StatusPaymentRequired, ErrTypeInsufficientFunds}},
	{claims.ErrInsufficientBalance, mapping{http.StatusPaymentRequired, ErrTypeInsufficientFunds}},

	// Preconditions not yet met
	{session.ErrSeedNotDelivered, mapping{http.StatusTooEarly, ErrTypeNotReady}},
	{claims.ErrSealNotRevealed, mapping{http.StatusTooEarly, ErrTypeNotReady}},
	{seal.ErrEmergencyTooEarly, mapping{http.StatusTooEarly, ErrTypeNotReady}},
}

// classify resolves an error to its status code and error type.
func classify(err error) mapping {
	for _, em := range errorMappings {
		if errors.Is(err, em.err) {
			return em.m
		}
	}
	return mapping{http.StatusInternalServerError, ErrTypeInternal}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *log.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies an error and writes the structured response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetReqID(r.Context())
	m := classify(err)

	engineErr := NewError(m.errType, err.Error()).
		WithRequestID(requestID).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, engineErr, m.status)
	eh.writeErrorResponse(w, m.status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	requestID := middleware.GetReqID(r.Context())

	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(requestID).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

// logError logs the error with appropriate level and context
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)

	logLevel := "ERROR"
	if status < 500 {
		logLevel = "WARN"
	}

	eh.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s path=%s message=%q",
		logLevel, engineErr.Type, category, status, engineErr.RequestID, r.URL.Path, engineErr.Message,
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := writeJSONError(w, engineErr); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				requestID := middleware.GetReqID(r.Context())

				eh.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()

				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
