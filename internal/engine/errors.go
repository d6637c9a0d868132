package engine

import (
	"errors"
	"strings"
)

// dependencyUnavailableError signals a missing native runtime so callers can
// report 503 instead of a generic failure.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// ErrOutOfMemory is wrapped by Load when the runtime fails to allocate the
// model weights or its context.
var ErrOutOfMemory = errors.New("engine: out of memory")

// IsOutOfMemory reports whether err indicates an allocation failure.
func IsOutOfMemory(err error) bool { return errors.Is(err, ErrOutOfMemory) }

// looksLikeAllocFailure matches the wording llama.cpp uses when a buffer or
// KV cache allocation fails.
func looksLikeAllocFailure(msg string) bool {
	msg = strings.ToLower(msg)
	for _, s := range []string{"out of memory", "failed to allocate", "alloc", "insufficient memory", "cannot allocate"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
