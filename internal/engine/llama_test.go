//go:build llama

package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

// EDGELLM_TEST_MODEL points at a small GGUF model; tests that need real
// inference are skipped without it.
func testModel(t *testing.T) string {
	t.Helper()
	path := os.Getenv("EDGELLM_TEST_MODEL")
	if path == "" {
		t.Skip("EDGELLM_TEST_MODEL not set")
	}
	return path
}

func TestLlamaHandle_NextBeforePrime(t *testing.T) {
	h := &llamaHandle{}
	if _, err := h.Next(context.Background()); err == nil {
		t.Fatal("expected error from Next before Prime")
	}
	if err := h.Prime(context.Background(), "hi"); err == nil {
		t.Fatal("expected error priming a handle without a model")
	}
	if err := h.Abort(); err != nil {
		t.Fatalf("abort without a pass: %v", err)
	}
}

func TestLlama_LoadEmptyPath(t *testing.T) {
	if _, err := NewLlama().Load("  ", Options{}); err == nil {
		t.Fatal("expected error for empty model path")
	}
}

func TestPredictOptions(t *testing.T) {
	if n := len(predictOptions(Options{})); n != 2 {
		t.Fatalf("expected threads and temperature only, got %d options", n)
	}
	if n := len(predictOptions(Options{ContextSize: 512, StopWords: []string{"</s>"}})); n != 4 {
		t.Fatalf("expected tokens and stop words added, got %d options", n)
	}
}

// pull reads up to n tokens, stopping early at end of sequence.
func pull(t *testing.T, h Handle, n int) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	var out []string
	for len(out) < n {
		tok, err := h.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, tok)
	}
	return out
}

func TestLlama_PullAbortAndPrimeAgain(t *testing.T) {
	h, err := NewLlama().Load(testModel(t), Options{ContextSize: 512, Threads: 2, MaxTokens: 32})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	if err := h.Prime(context.Background(), "Count from one to twenty:"); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if got := pull(t, h, 3); len(got) == 0 {
		t.Fatal("expected tokens from the first pass")
	}

	done := make(chan error, 1)
	go func() { done <- h.Abort() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("abort: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("abort did not return")
	}
	if _, err := h.Next(context.Background()); err == nil {
		t.Fatal("expected Next after Abort to fail until the next Prime")
	}

	if err := h.Prime(context.Background(), "Name three colors:"); err != nil {
		t.Fatalf("prime again: %v", err)
	}
	if got := pull(t, h, 3); len(got) == 0 {
		t.Fatal("expected tokens from the second pass")
	}
	// Priming over a live pass stops it first.
	if err := h.Prime(context.Background(), "Say hi:"); err != nil {
		t.Fatalf("prime over live pass: %v", err)
	}
	pull(t, h, 1)
}

func TestLlama_NextHonorsContext(t *testing.T) {
	h, err := NewLlama().Load(testModel(t), Options{ContextSize: 512, Threads: 2, MaxTokens: 64})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()
	if err := h.Prime(context.Background(), "Tell me a story:"); err != nil {
		t.Fatalf("prime: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A token may already be waiting on the channel; cancellation wins within a few pulls.
	var nextErr error
	for i := 0; i < 100 && nextErr == nil; i++ {
		_, nextErr = h.Next(ctx)
	}
	if !errors.Is(nextErr, context.Canceled) && !errors.Is(nextErr, io.EOF) {
		t.Fatalf("expected canceled, got %v", nextErr)
	}
	if err := h.Abort(); err != nil {
		t.Fatalf("abort: %v", err)
	}
}
