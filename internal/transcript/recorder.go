package transcript

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"edgellm/internal/session"
)

// Recorder is a session.EventPublisher that writes every finished generation
// to a Store. Publish only enqueues; a background goroutine does the writes,
// so it is safe to call with the session lock held. When the queue is full
// the turn is dropped and logged.
type Recorder struct {
	store *Store
	log   zerolog.Logger
	ch    chan Turn
	wg    sync.WaitGroup
	once  sync.Once

	mu     sync.Mutex
	closed bool
}

// NewRecorder starts a recorder with room for queue pending turns.
func NewRecorder(store *Store, log zerolog.Logger, queue int) *Recorder {
	if queue <= 0 {
		queue = 64
	}
	r := &Recorder{store: store, log: log, ch: make(chan Turn, queue)}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Publish implements session.EventPublisher.
func (r *Recorder) Publish(e session.Event) {
	result, ok := strings.CutPrefix(e.Name, "generation_")
	if !ok || result == "start" {
		return
	}
	t := Turn{SessionID: e.SessionID, Result: result, CreatedAt: time.Now()}
	t.ModelPath, _ = e.Fields["model_path"].(string)
	t.Query, _ = e.Fields["query"].(string)
	t.Response, _ = e.Fields["content"].(string)
	t.Tokens, _ = e.Fields["tokens"].(int)
	t.Elapsed, _ = e.Fields["elapsed"].(time.Duration)
	t.TokensPerSecond, _ = e.Fields["tokens_per_second"].(float64)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- t:
	default:
		r.log.Warn().Str("session", t.SessionID).Msg("transcript queue full, turn dropped")
	}
}

func (r *Recorder) loop() {
	defer r.wg.Done()
	for t := range r.ch {
		if _, err := r.store.SaveTurn(context.Background(), t); err != nil {
			r.log.Error().Err(err).Str("session", t.SessionID).Msg("save turn")
		}
	}
}

// Close stops accepting turns and waits for queued ones to be written. It
// does not close the Store.
func (r *Recorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ch)
		r.mu.Unlock()
	})
	r.wg.Wait()
}
