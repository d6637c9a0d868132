package manager

import (
	"errors"
	"net/http"
)

// modelNotFoundError is returned by Switch for an id absent from the models dir.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string   { return "model not found: " + e.id }
func (e modelNotFoundError) StatusCode() int { return http.StatusNotFound }

// ErrModelNotFound returns an error when a requested model id is not present in the registry.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// loadingError signals that a model load is in progress.
type loadingError struct{ path string }

func (e loadingError) Error() string   { return "model loading: " + e.path }
func (e loadingError) StatusCode() int { return http.StatusServiceUnavailable }

// IsLoading reports whether err was caused by an in-progress model load.
func IsLoading(err error) bool {
	var e loadingError
	return errors.As(err, &e)
}
