package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xtxerr/docservice/internal/errors"
	"github.com/xtxerr/docservice/internal/logging"
)

// =============================================================================
// Error Handling - uses centralized error codes from errors package
// =============================================================================

// HandlerError is an error ready to be written as an HTTP response.
type HandlerError struct {
	Status  int    // HTTP status
	Code    int32  // Response code from errors.Code*
	Message string // Client-facing message
	Cause   error  // Optional underlying error, never sent to the client
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// ToHandlerError converts any error to a HandlerError. Client errors keep
// their message; server errors are reduced to the code name so storage
// details do not leak.
func ToHandlerError(err error) *HandlerError {
	if err == nil {
		return nil
	}
	if herr, ok := err.(*HandlerError); ok {
		return herr
	}

	status := errors.HTTPStatus(err)
	code := errors.ErrorToCode(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = errors.CodeName(code)
	}
	return &HandlerError{Status: status, Code: code, Message: msg, Cause: err}
}

// ErrInvalidBody creates a 400 error for an unreadable request body.
func ErrInvalidBody(err error) *HandlerError {
	return &HandlerError{
		Status:  http.StatusBadRequest,
		Code:    errors.CodeInvalidRequest,
		Message: fmt.Sprintf("invalid request body: %v", err),
		Cause:   fmt.Errorf("%w: %v", errors.ErrInvalidBody, err),
	}
}

// ErrBodyTooLarge creates a 413 error.
func ErrBodyTooLarge(limit int64) *HandlerError {
	return &HandlerError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    errors.CodeInvalidRequest,
		Message: fmt.Sprintf("request body exceeds %d bytes", limit),
		Cause:   errors.ErrInvalidBody,
	}
}

var (
	errRouteNotFound = &HandlerError{
		Status:  http.StatusNotFound,
		Code:    errors.CodeNotFound,
		Message: "no such route",
		Cause:   errors.ErrNotFound,
	}

	errMethodNotAllowed = &HandlerError{
		Status:  http.StatusMethodNotAllowed,
		Code:    errors.CodeInvalidRequest,
		Message: "method not allowed",
	}

	errPanic = &HandlerError{
		Status:  http.StatusInternalServerError,
		Code:    errors.CodeInternal,
		Message: errors.CodeName(errors.CodeInternal),
		Cause:   errors.ErrInternal,
	}
)

// =============================================================================
// Response Writing
// =============================================================================

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the failure.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	herr := ToHandlerError(err)

	l := logWith(r)
	if herr.Status >= http.StatusInternalServerError {
		l.Error("request failed", "status", herr.Status, "error", err)
	} else {
		l.Debug("request rejected", "status", herr.Status, "error", err)
	}

	writeJSON(w, herr.Status, ErrorBody{Error: ErrorDetail{
		Code:      errors.CodeName(herr.Code),
		Message:   herr.Message,
		RequestID: logging.RequestID(r.Context()),
	}})
}
