package manager

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"edgellm/internal/engine"
	"edgellm/internal/gguf"
	"edgellm/internal/session"
)

// fakeEngine streams a fixed token list. loadGate, when set, blocks Load
// until it receives a value; nextGate does the same for every Next.
type fakeEngine struct {
	mu       sync.Mutex
	tokens   []string
	loadErr  error
	loadGate chan struct{}
	nextGate chan struct{}
	loads    []string
}

func (f *fakeEngine) Load(path string, _ engine.Options) (engine.Handle, error) {
	if f.loadGate != nil {
		<-f.loadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, path)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &fakeHandle{e: f}, nil
}

func (f *fakeEngine) loaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...)
}

type fakeHandle struct {
	e   *fakeEngine
	pos int
}

func (h *fakeHandle) Prime(context.Context, string) error { h.pos = 0; return nil }

func (h *fakeHandle) Next(ctx context.Context) (string, error) {
	if h.e.nextGate != nil {
		select {
		case <-h.e.nextGate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if h.pos >= len(h.e.tokens) {
		return "", io.EOF
	}
	tok := h.e.tokens[h.pos]
	h.pos++
	return tok, nil
}

func (h *fakeHandle) Abort() error { return nil }
func (h *fakeHandle) Close() error { return nil }

func writeModel(t *testing.T, dir, name string, ctxLen uint32) string {
	t.Helper()
	p := filepath.Join(dir, name)
	err := gguf.WriteFile(p,
		gguf.KV{Key: "general.architecture", Value: "llama"},
		gguf.KV{Key: "llama.context_length", Value: ctxLen},
	)
	if err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

func newTestManager(eng *fakeEngine, modelsDir, systemPrompt string) *Manager {
	return New(Config{
		Session:      session.Config{Engine: eng},
		Params:       session.DefaultParams(),
		ModelsDir:    modelsDir,
		SystemPrompt: systemPrompt,
	})
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// waitFor polls cond until it holds or the test deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func chat(t *testing.T, m *Manager, msg string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := m.Chat(testCtx(t), msg, &buf, nil); err != nil {
		t.Fatalf("chat: %v", err)
	}
	return buf.String()
}
