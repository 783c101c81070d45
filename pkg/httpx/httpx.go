// Package httpx holds the JSON request/response conventions shared by all
// API modules: a body decoder with a size cap, response envelopes, and the
// mapping from domain errors onto HTTP statuses.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

const maxBodyBytes = 1 << 20 // request bodies larger than 1 MiB are rejected

// Error is a domain error with an explicit HTTP status.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string { return e.Message }

func NewError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return NewError(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return NewError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return NewError(http.StatusForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return NewError(http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return NewError(http.StatusConflict, format, args...)
}

func BadGateway(format string, args ...any) *Error {
	return NewError(http.StatusBadGateway, format, args...)
}

// Decode reads a JSON body into dst, rejecting unknown fields and
// oversized payloads.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return BadRequest("invalid request body: %v", err)
	}
	return nil
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondError maps err onto an HTTP status and writes a JSON error body.
// Unknown errors become opaque 500s; the details go to the log, not the
// client.
func RespondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, message := mapError(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	JSON(w, status, map[string]string{"error": message})
}

func mapError(err error) (int, string) {
	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr.Status, httpErr.Message
	}

	switch {
	case errors.Is(err, tenant.ErrTenantNotConfigured):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, "tenant not found"
	case errors.Is(err, tenant.ErrInactiveTenant):
		return http.StatusForbidden, "tenant is inactive"
	case errors.Is(err, jwt.ErrMissingToken),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrExpiredToken),
		errors.Is(err, jwt.ErrInvalidScope):
		return http.StatusUnauthorized, "unauthorized"
	}

	return http.StatusInternalServerError, "internal server error"
}
