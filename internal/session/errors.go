package session

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies why a model failed to load.
type LoadErrorKind string

const (
	LoadFileNotFound      LoadErrorKind = "file_not_found"
	LoadUnsupportedFormat LoadErrorKind = "unsupported_format"
	LoadOutOfMemory       LoadErrorKind = "out_of_memory"
	LoadInvalidParams     LoadErrorKind = "invalid_params"
)

// LoadError is returned by Load. Err carries the underlying cause.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is a LoadError of the given kind.
func IsLoadError(err error, kind LoadErrorKind) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == kind
}

// sessionBusyError signals an operation attempted while the session is
// loading or generating.
type sessionBusyError struct {
	op    string
	state State
}

func (e sessionBusyError) Error() string { return "session busy: " + e.op + " while " + string(e.state) }

// IsSessionBusy reports whether err indicates the session was busy (return 429).
func IsSessionBusy(err error) bool {
	var e sessionBusyError
	return errors.As(err, &e)
}

// sessionClosedError signals an operation attempted after Close.
type sessionClosedError struct{ op string }

func (e sessionClosedError) Error() string { return "session closed: " + e.op }

// IsSessionClosed reports whether err indicates the session was closed.
func IsSessionClosed(err error) bool {
	var e sessionClosedError
	return errors.As(err, &e)
}

// notLoadedError signals an operation that needs a model before one is loaded.
type notLoadedError struct{ op string }

func (e notLoadedError) Error() string { return "no model loaded: " + e.op }

// IsNotLoaded reports whether err indicates that no model is loaded.
func IsNotLoaded(err error) bool {
	var e notLoadedError
	return errors.As(err, &e)
}

// alreadyLoadedError signals a second Load on the same session.
type alreadyLoadedError struct{ path string }

func (e alreadyLoadedError) Error() string { return "model already loaded: " + e.path }

// IsAlreadyLoaded reports whether err indicates a second Load.
func IsAlreadyLoaded(err error) bool {
	var e alreadyLoadedError
	return errors.As(err, &e)
}

// ErrGenerationAborted is returned by TokenStream.Next after the consumer
// abandoned the stream or its context was canceled. It is distinct from
// io.EOF, which marks a natural end of sequence.
var ErrGenerationAborted = errors.New("generation aborted")
