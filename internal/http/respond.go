package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/backend"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// errorResponse maps err onto a status and body. Validation messages keep
// the bare cause so clients can rebuild the field error.
func errorResponse(err error) (int, wire.Error, string) {
	var ve *core.ValidationError
	var xe *core.ExtractionError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, wire.Error{Message: ve.Err.Error(), Field: ve.Field}, log.ErrorTypeValidation
	case errors.Is(err, backend.ErrAINotConfigured):
		return http.StatusServiceUnavailable, wire.Error{Message: backend.ErrAINotConfigured.Error()}, log.ErrorTypeInternal
	case errors.As(err, &xe):
		msg := xe.Reason
		if msg == "" {
			msg = "could not read the receipt"
		}
		return http.StatusUnprocessableEntity, wire.Error{Message: msg, Field: "file"}, log.ErrorTypeExtraction
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, wire.Error{Message: core.ErrNotFound.Error()}, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, wire.Error{Message: core.ErrUnauthorized.Error()}, log.ErrorTypeAuth
	case errors.Is(err, core.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, wire.Error{Message: core.ErrUnavailable.Error()}, log.ErrorTypeNetwork
	}
	return http.StatusInternalServerError, wire.Error{Message: "internal server error"}, log.ErrorTypeInternal
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body, kind := errorResponse(err)

	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithErrorType(kind).WithError(err).ToSlice()
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields...)
	}
	writeJSON(w, status, body)
}

// decodeJSON reads one JSON value from a size-limited body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return core.NewValidationError("request", errors.New("request body too large"))
		}
		return core.NewValidationError("request", errors.New("malformed JSON body"))
	}
	return nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
}
