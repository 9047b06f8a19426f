package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount        = errors.New("amount must be a non-negative number")
	ErrInvalidDate          = errors.New("date must be a valid calendar date (YYYY-MM-DD)")
	ErrInvalidCategory      = errors.New("unknown category")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrMerchantTooLong      = errors.New("merchant too long (max 100 characters)")
	ErrReadOnlyField        = errors.New("field is read-only")
	ErrUnknownField         = errors.New("unknown field")

	ErrNotFound     = errors.New("expense not found")
	ErrUnavailable  = errors.New("service temporarily unavailable")
	ErrUnauthorized = errors.New("credentials rejected")
)

// ValidationError reports a malformed expense candidate and the field at fault.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExtractionError is returned when a receipt could not be turned into a
// structured guess. It is terminal for the request that produced it.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := "receipt extraction failed"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// UserMessage maps err to the single sentence shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		field := strings.ReplaceAll(ve.Field, "_", " ")
		return fmt.Sprintf("Please check the %s: %v.", field, ve.Err)
	}

	var xe *ExtractionError
	if errors.As(err, &xe) {
		if xe.Reason != "" {
			return fmt.Sprintf("Failed to process receipt (%s). Please try again.", xe.Reason)
		}
		return "Failed to process receipt. Please try again."
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return "That expense no longer exists."
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "The service is temporarily unavailable. Please try again later."
	}
	return "Something went wrong. Please try again."
}
