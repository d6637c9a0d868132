package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"edgellm/internal/engine"
	"edgellm/pkg/types"
)

const (
	resultCompleted = "completed"
	resultAborted   = "aborted"
	resultFailed    = "failed"
)

// GenerateResponse appends query as a user message, renders the prompt,
// primes the engine and returns a lazy stream of the response tokens. The
// session stays in StateGenerating until the stream ends or is closed; every
// other operation fails fast with a busy error meanwhile.
func (s *Session) GenerateResponse(ctx context.Context, query string) (*TokenStream, error) {
	s.mu.Lock()
	if err := s.checkReady("generate"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	release, err := s.tryAcquireGeneration("generate")
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.history = append(s.history, types.Message{Role: types.RoleUser, Content: query})
	prompt, err := s.tmpl.Render(s.promptMessages(), s.bos, s.eos)
	if err != nil {
		s.dropLastUser()
		release()
		s.mu.Unlock()
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	h := s.handle
	s.state = StateGenerating
	s.mu.Unlock()

	if err := h.Prime(ctx, prompt); err != nil {
		s.mu.Lock()
		s.dropLastUser()
		s.state = StateReady
		release()
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("prime failed")
		return nil, fmt.Errorf("prime: %w", err)
	}

	st := &TokenStream{s: s, handle: h, release: release, query: query}
	s.mu.Lock()
	s.active = st
	s.mu.Unlock()
	s.log.Debug().Int("prompt_bytes", len(prompt)).Msg("generation start")
	s.pub.Publish(Event{Name: "generation_start", SessionID: s.id, Fields: map[string]any{"prompt_bytes": len(prompt)}})
	return st, nil
}

// TokenStream is a single-pass, pull-based sequence of generated tokens.
// Each Next performs exactly one engine step. A stream must be drained to
// io.EOF or closed; until then the session stays busy.
type TokenStream struct {
	s       *Session
	handle  engine.Handle
	release func()
	query   string
	pulling atomic.Bool

	mu        sync.Mutex
	started   time.Time
	tokens    int
	text      strings.Builder
	done      bool
	abandoned bool
	err       error // terminal engine error
	final     GenerationMetrics
}

// Next returns the next token. It returns io.EOF at natural end of sequence,
// ErrGenerationAborted after Close or context cancellation, and the engine
// error (again on every later call) when generation failed. Calling Next
// from two goroutines at once fails with a busy error.
func (st *TokenStream) Next(ctx context.Context) (string, error) {
	if !st.pulling.CompareAndSwap(false, true) {
		return "", sessionBusyError{op: "next", state: StateGenerating}
	}
	defer st.pulling.Store(false)

	if err := st.terminal(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		st.finish(resultAborted, nil)
		return "", fmt.Errorf("%w: %w", ErrGenerationAborted, err)
	}

	st.mu.Lock()
	if st.started.IsZero() {
		st.started = st.s.now()
	}
	st.mu.Unlock()

	tok, err := st.handle.Next(ctx)
	if err := st.terminal(); err != nil {
		// Closed while the engine step was running.
		return "", err
	}
	switch {
	case err == nil:
		st.mu.Lock()
		st.tokens++
		st.text.WriteString(tok)
		st.mu.Unlock()
		return tok, nil
	case errors.Is(err, io.EOF):
		st.finish(resultCompleted, nil)
		return "", io.EOF
	case ctx.Err() != nil:
		st.finish(resultAborted, nil)
		return "", fmt.Errorf("%w: %w", ErrGenerationAborted, ctx.Err())
	default:
		err = fmt.Errorf("generate: %w", err)
		st.finish(resultFailed, err)
		return "", err
	}
}

// terminal returns the error Next reports once the stream has ended, or nil
// while it is still live.
func (st *TokenStream) terminal() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	switch {
	case !st.done:
		return nil
	case st.abandoned:
		return ErrGenerationAborted
	case st.err != nil:
		return st.err
	default:
		return io.EOF
	}
}

// Close abandons the stream. The partial response is discarded from the
// history and the session becomes ready again. Closing an ended stream is a
// no-op.
func (st *TokenStream) Close() error {
	st.finish(resultAborted, nil)
	return nil
}

// Tokens adapts the stream to a range-over-func sequence. The sequence ends
// silently at end of sequence; any other error is yielded once. Breaking out
// of the loop closes the stream.
func (st *TokenStream) Tokens(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			tok, err := st.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(tok, nil) {
				_ = st.Close()
				return
			}
		}
	}
}

// Abandoned reports whether the stream was closed or canceled before the
// engine reached end of sequence.
func (st *TokenStream) Abandoned() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.abandoned
}

// TokensGenerated returns the number of tokens pulled so far.
func (st *TokenStream) TokensGenerated() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.tokens
}

// Text returns the concatenation of the tokens pulled so far.
func (st *TokenStream) Text() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.text.String()
}

// Metrics returns the token count and elapsed time of this pass so far.
func (st *TokenStream) Metrics() GenerationMetrics {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.metricsLocked()
}

func (st *TokenStream) metricsLocked() GenerationMetrics {
	if st.done {
		return st.final
	}
	m := GenerationMetrics{TokensGenerated: st.tokens}
	if !st.started.IsZero() {
		m.Elapsed = st.s.now().Sub(st.started)
	}
	return m
}

// finish ends the stream once, updates the history and metrics, and returns
// the session to ready. The engine abort runs before the session lock is
// taken; it can block until the in-flight step returns.
func (st *TokenStream) finish(result string, err error) {
	s := st.s
	st.mu.Lock()
	if st.done {
		st.mu.Unlock()
		return
	}
	m := st.metricsLocked()
	st.final = m
	st.done = true
	st.err = err
	st.abandoned = result == resultAborted
	text := st.text.String()
	st.mu.Unlock()

	if result != resultCompleted {
		if aerr := st.handle.Abort(); aerr != nil {
			s.log.Warn().Err(aerr).Msg("abort generation")
		}
	}

	s.mu.Lock()
	keep := s.params.StoreChats
	switch {
	case result == resultCompleted && keep:
		s.history = append(s.history, types.Message{Role: types.RoleAssistant, Content: text})
	case !keep:
		s.dropLastUser()
	}
	if result == resultCompleted {
		s.last = m
		s.completed = true
	}
	s.active = nil
	s.state = StateReady
	observeGeneration(result, m)

	ev := s.log.Info()
	if result == resultFailed {
		ev = s.log.Error().Err(err)
	}
	ev.Str("result", result).
		Int("tokens", m.TokensGenerated).
		Dur("dur", m.Elapsed).
		Float64("tokens_per_second", m.TokensPerSecond()).
		Msg("generation end")
	s.pub.Publish(Event{Name: "generation_" + result, SessionID: s.id, Fields: map[string]any{
		"model_path":        s.modelPath,
		"query":             st.query,
		"content":           text,
		"tokens":            m.TokensGenerated,
		"elapsed":           m.Elapsed,
		"tokens_per_second": m.TokensPerSecond(),
	}})
	st.release()
	s.mu.Unlock()
}
