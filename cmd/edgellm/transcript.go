package main

import (
	"edgellm/internal/session"
	"edgellm/internal/transcript"
)

// openTranscript returns the publisher recording finished turns and a close
// func flushing it. Without a transcript path both are no-ops.
func (a *app) openTranscript(path string) (session.EventPublisher, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}
	store, err := transcript.Open(path)
	if err != nil {
		return nil, nil, err
	}
	rec := transcript.NewRecorder(store, a.log, 0)
	return rec, func() error {
		rec.Close()
		return store.Close()
	}, nil
}
