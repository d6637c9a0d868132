package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"edgellm/internal/engine"
	"edgellm/internal/gguf"
	"edgellm/internal/httpapi"
	"edgellm/internal/manager"
	"edgellm/internal/session"
	"edgellm/internal/transcript"
)

// scriptEngine replies with the same tokens for every prompt. When gate is
// set each Next waits for a value on it.
type scriptEngine struct {
	tokens []string
	gate   chan struct{}
}

func (e *scriptEngine) Load(string, engine.Options) (engine.Handle, error) {
	return &scriptHandle{e: e}, nil
}

type scriptHandle struct {
	e   *scriptEngine
	pos int
}

func (h *scriptHandle) Prime(context.Context, string) error { h.pos = 0; return nil }

func (h *scriptHandle) Next(ctx context.Context) (string, error) {
	if h.e.gate != nil {
		select {
		case <-h.e.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if h.pos >= len(h.e.tokens) {
		return "", io.EOF
	}
	h.pos++
	return h.e.tokens[h.pos-1], nil
}

func (h *scriptHandle) Abort() error { return nil }
func (h *scriptHandle) Close() error { return nil }

// createModelsDir writes metadata-only GGUF files named after ids.
func createModelsDir(t *testing.T, ids ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, id := range ids {
		err := gguf.WriteFile(filepath.Join(dir, id),
			gguf.KV{Key: "general.architecture", Value: "llama"},
			gguf.KV{Key: "llama.context_length", Value: uint32(4096)},
		)
		if err != nil {
			t.Fatalf("write model %s: %v", id, err)
		}
	}
	return dir
}

type stack struct {
	srv   *httptest.Server
	mgr   *manager.Manager
	store *transcript.Store
	rec   *transcript.Recorder
}

// newStack wires manager, HTTP mux and transcript recorder the way serve does.
func newStack(t *testing.T, eng engine.Engine, modelsDir string) *stack {
	t.Helper()
	store, err := transcript.Open(filepath.Join(t.TempDir(), "chats.db"))
	if err != nil {
		t.Fatalf("open transcript: %v", err)
	}
	rec := transcript.NewRecorder(store, testLogger(), 0)
	mgr := manager.New(manager.Config{
		Session:      session.Config{Engine: eng, Publisher: rec},
		Params:       session.DefaultParams(),
		ModelsDir:    modelsDir,
		SystemPrompt: "You are terse.",
	})
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	s := &stack{srv: srv, mgr: mgr, store: store, rec: rec}
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
		rec.Close()
		_ = store.Close()
	})
	return s
}

func (s *stack) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(s.srv.URL+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (s *stack) getJSON(t *testing.T, path string, v any) {
	t.Helper()
	resp, err := http.Get(s.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: decode: %v", path, err)
	}
}

// ndjsonLines reads every line of an NDJSON body.
func ndjsonLines(t *testing.T, r io.Reader) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad ndjson line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

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
