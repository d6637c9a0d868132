// Package cfgerr holds the configuration-invariant error shared by the
// session parameters, the text splitter and the config loader.
package cfgerr

import (
	"errors"
	"fmt"
)

// invalidConfigError signals a violated configuration invariant. It is
// returned at construction time and never clamped away.
type invalidConfigError struct {
	field  string
	reason string
}

func (e invalidConfigError) Error() string {
	return "invalid config: " + e.field + ": " + e.reason
}

// New builds an invalid-config error for field.
func New(field, format string, args ...any) error {
	return invalidConfigError{field: field, reason: fmt.Sprintf(format, args...)}
}

// IsInvalidConfig reports whether err (or anything it wraps) is an invalid-config error.
func IsInvalidConfig(err error) bool {
	var e invalidConfigError
	return errors.As(err, &e)
}

// Field returns the offending field name, or "" when err is not an invalid-config error.
func Field(err error) string {
	var e invalidConfigError
	if errors.As(err, &e) {
		return e.field
	}
	return ""
}
