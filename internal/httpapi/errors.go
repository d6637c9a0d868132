package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"edgellm/internal/common/cfgerr"
	"edgellm/internal/engine"
	"edgellm/internal/session"
	"edgellm/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case session.IsSessionBusy(err):
		return http.StatusTooManyRequests
	case session.IsSessionClosed(err), engine.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	case cfgerr.IsInvalidConfig(err):
		return http.StatusBadRequest
	case session.IsNotLoaded(err), session.IsAlreadyLoaded(err):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status and counts 429s as
// backpressure.
func writeServiceError(w http.ResponseWriter, err error) int {
	status := statusForError(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("session_busy")
	}
	writeJSONError(w, status, err.Error())
	return status
}
