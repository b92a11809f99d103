// Package errs defines the structured error type and error codes used across
// the Bidcoin backend.
package errs

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fmt"

	"github.com/google/uuid"

	"encore.app/pkg/logger"
)

// Error codes
const (
	// 400 Bad Request
	InvalidArgument  = "INVALID_ARGUMENT"
	ValidationFailed = "VALIDATION_FAILED"

	// 401 Unauthorized
	Unauthenticated = "UNAUTHENTICATED"
	TokenExpired    = "TOKEN_EXPIRED"

	// 403 Forbidden
	Forbidden = "FORBIDDEN"

	// 404 Not Found
	NotFound = "NOT_FOUND"

	// 409 Conflict
	Conflict      = "CONFLICT"
	AlreadyExists = "ALREADY_EXISTS"

	// 409 Conflict, retryable: lock/transaction contention on the auction row.
	// The only code a client should automatically retry.
	Contention = "CONTENTION"

	// 429 Too Many Requests
	TooManyRequests = "TOO_MANY_REQUESTS"

	// 500 Internal Server Error
	Internal = "INTERNAL_ERROR"

	// 503 Service Unavailable
	UpstreamUnavailable = "UPSTREAM_UNAVAILABLE"

	// Auction domain codes (AUC)
	AucNotFound     = "AUC_NOT_FOUND"
	AucEnded        = "AUC_ENDED"
	AucNotActive    = "AUC_NOT_ACTIVE"
	AucPriceCapped  = "AUC_PRICE_CAPPED"
	AucBadState     = "AUC_BAD_STATE"
	AucReserveUnmet = "AUC_RESERVE_UNMET"

	// Bid pack ledger codes (PACK)
	PackNotFound         = "PACK_NOT_FOUND"
	PackInsufficientBids = "PACK_INSUFFICIENT_BIDS"
	PackExpired          = "PACK_EXPIRED"

	// User domain codes (USR)
	UsrNotFound      = "USR_NOT_FOUND"
	UsrInvalidWallet = "USR_INVALID_WALLET"

	// NFT domain codes (NFT)
	NftNotFound = "NFT_NOT_FOUND"

	// Achievement domain codes (ACH)
	AchNotFound       = "ACH_NOT_FOUND"
	AchUnknownTrigger = "ACH_UNKNOWN_TRIGGER"
)

// Error represents a structured error
type Error struct {
	Code          string      `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Details       interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("[%s] %s: %s", e.CorrelationID, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the HTTP status code for the error
func (e *Error) HTTPStatus() int {
	switch e.Code {
	// Auction domain mappings
	case AucNotFound:
		return http.StatusNotFound
	case AucEnded, AucNotActive, AucPriceCapped:
		return http.StatusBadRequest
	case AucBadState, AucReserveUnmet:
		return http.StatusConflict

	// Ledger domain mappings
	case PackNotFound:
		return http.StatusNotFound
	case PackInsufficientBids, PackExpired:
		return http.StatusBadRequest

	// User domain mappings
	case UsrNotFound:
		return http.StatusNotFound
	case UsrInvalidWallet:
		return http.StatusBadRequest

	// NFT and achievement mappings
	case NftNotFound, AchNotFound:
		return http.StatusNotFound
	case AchUnknownTrigger:
		return http.StatusBadRequest

	// Generic mappings
	case InvalidArgument, ValidationFailed:
		return http.StatusBadRequest
	case Unauthenticated, TokenExpired:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict, AlreadyExists, Contention:
		return http.StatusConflict
	case TooManyRequests:
		return http.StatusTooManyRequests
	case UpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		// Heuristics for domain-prefixed codes
		lc := strings.ToLower(e.Code)
		switch {
		case strings.Contains(lc, "not_found"):
			return http.StatusNotFound
		case strings.Contains(lc, "conflict"):
			return http.StatusConflict
		case strings.HasPrefix(e.Code, "AUC_") ||
			strings.HasPrefix(e.Code, "PACK_") ||
			strings.HasPrefix(e.Code, "USR_") ||
			strings.HasPrefix(e.Code, "NFT_") ||
			strings.HasPrefix(e.Code, "ACH_"):
			return http.StatusBadRequest
		default:
			return http.StatusInternalServerError
		}
	}
}

// Retryable reports whether a client may safely retry the failed request.
func (e *Error) Retryable() bool {
	return e.Code == Contention
}

// New creates a new error
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithDetails adds details to an error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithCorrelationID adds correlation ID to an error
func (e *Error) WithCorrelationID(correlationID string) *Error {
	e.CorrelationID = correlationID
	return e
}

// CorrelationIDFromContext returns the request id carried in ctx,
// generating a fresh id when the context has none.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if id := logger.RequestIDFromContext(ctx); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// E creates a domain-coded error and auto-fills correlation_id from context.
func E(ctx context.Context, code, message string) *Error {
	return New(code, message).WithCorrelationID(CorrelationIDFromContext(ctx))
}

// EDetails creates a domain-coded error with details and auto correlation_id.
func EDetails(ctx context.Context, code, message string, details interface{}) *Error {
	return (&Error{Code: code, Message: message, Details: details}).WithCorrelationID(CorrelationIDFromContext(ctx))
}

// Code extracts the error code from err, or INTERNAL_ERROR for foreign errors.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
