package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewInvalidUnit(symbol string) error {
	return NewDomainError("INVALID_UNIT", fmt.Sprintf("unknown unit %q", symbol), http.StatusBadRequest, map[string]any{"unit": symbol})
}

func NewIncompatibleUnits(fromFamily, toFamily string) error {
	return NewDomainError("INCOMPATIBLE_UNITS", fmt.Sprintf("cannot convert %s to %s", fromFamily, toFamily), http.StatusBadRequest, map[string]any{
		"from_family": fromFamily,
		"to_family":   toFamily,
	})
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInvalidToken(message string) error {
	return NewDomainError("INVALID_TOKEN", message, http.StatusUnauthorized, nil)
}

func NewTokenExpired() error {
	return NewDomainError("TOKEN_EXPIRED", "entitlement token expired", http.StatusUnauthorized, nil)
}

// NewPaymentRequired signals that the requested operation needs a pro plan.
func NewPaymentRequired(message string) error {
	return NewDomainError("PAYMENT_REQUIRED", message, http.StatusPaymentRequired, nil)
}

func NewInvalidLicense(message string) error {
	return NewDomainError("INVALID_LICENSE", message, http.StatusBadRequest, nil)
}

// NewProviderUnavailable wraps payment-provider transport failures as 502.
func NewProviderUnavailable(err error) error {
	return &DomainError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "payment provider unavailable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewTooManyRequests(message string) error {
	return NewDomainError("RATE_LIMITED", message, http.StatusTooManyRequests, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
