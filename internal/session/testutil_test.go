package session

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"edgellm/internal/engine"
	"edgellm/internal/gguf"
)

// fakeEngine is a scripted in-memory engine used for tests.
type fakeEngine struct {
	mu       sync.Mutex
	loadErr  error
	primeErr error
	tokens   []string
	nextErr  error // returned instead of the token at index errAt
	errAt    int
	// gate, when set, makes Next wait for a value (or ctx) before each token;
	// entered receives a value every time Next starts waiting.
	gate    chan struct{}
	entered chan struct{}
	// abortGate, when set, makes Abort block until it is closed;
	// abortEntered receives a value when Abort starts waiting.
	abortGate    chan struct{}
	abortEntered chan struct{}

	loadedPath string
	opts       engine.Options
	prompts    []string
	handle     *fakeHandle
}

func (f *fakeEngine) Load(path string, opts engine.Options) (engine.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadedPath = path
	f.opts = opts
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.handle = &fakeHandle{e: f}
	return f.handle, nil
}

func (f *fakeEngine) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeHandle struct {
	e      *fakeEngine
	mu     sync.Mutex
	pos    int
	aborts int
	closed bool
}

func (h *fakeHandle) Prime(ctx context.Context, prompt string) error {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	if h.e.primeErr != nil {
		return h.e.primeErr
	}
	h.e.prompts = append(h.e.prompts, prompt)
	h.mu.Lock()
	h.pos = 0
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Next(ctx context.Context) (string, error) {
	h.e.mu.Lock()
	gate, entered := h.e.gate, h.e.entered
	tokens, nextErr, errAt := h.e.tokens, h.e.nextErr, h.e.errAt
	h.e.mu.Unlock()
	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if nextErr != nil && h.pos == errAt {
		return "", nextErr
	}
	if h.pos >= len(tokens) {
		return "", io.EOF
	}
	tok := tokens[h.pos]
	h.pos++
	return tok, nil
}

func (h *fakeHandle) Abort() error {
	h.e.mu.Lock()
	gate, entered := h.e.abortGate, h.e.abortEntered
	h.e.mu.Unlock()
	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}
	h.mu.Lock()
	h.aborts++
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) abortCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborts
}

// stepClock advances by step on every reading so elapsed times are never zero.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

// writeModel writes a metadata-only GGUF file and returns its path.
func writeModel(t *testing.T, kvs ...gguf.KV) string {
	t.Helper()
	if len(kvs) == 0 {
		kvs = []gguf.KV{
			{Key: "general.architecture", Value: "llama"},
			{Key: "llama.context_length", Value: uint32(4096)},
		}
	}
	p := filepath.Join(t.TempDir(), "model.gguf")
	if err := gguf.WriteFile(p, kvs...); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

// newTestSession returns an unloaded session wired to fe, a memory publisher
// and a clock that ticks 10ms per reading.
func newTestSession(t *testing.T, fe *fakeEngine) (*Session, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	clk := &stepClock{t: time.Unix(1_700_000_000, 0), step: 10 * time.Millisecond}
	return New(Config{Engine: fe, Publisher: pub, Now: clk.Now}), pub
}

// loadedSession returns a ready session over a default model file.
func loadedSession(t *testing.T, fe *fakeEngine, params InferenceParams) *Session {
	t.Helper()
	s, _ := newTestSession(t, fe)
	if err := s.Load(context.Background(), writeModel(t), params); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

// drain pulls every token until io.EOF and returns them.
func drain(t *testing.T, st *TokenStream) []string {
	t.Helper()
	var out []string
	for {
		tok, err := st.Next(context.Background())
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, tok)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
