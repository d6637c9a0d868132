//go:build !llama

package engine

import "testing"

func TestStubLoadFailsFast(t *testing.T) {
	if Available() {
		t.Fatalf("stub build must report unavailable")
	}
	h, err := NewLlama().Load("/models/x.gguf", Options{Threads: 1})
	if h != nil {
		t.Fatalf("expected nil handle")
	}
	if !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}
