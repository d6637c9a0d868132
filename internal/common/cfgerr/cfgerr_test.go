package cfgerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsInvalidConfig(t *testing.T) {
	err := New("chunk_size", "must be > 0, got %d", 0)
	if !IsInvalidConfig(err) {
		t.Fatalf("expected IsInvalidConfig true")
	}
	wrapped := fmt.Errorf("load: %w", err)
	if !IsInvalidConfig(wrapped) {
		t.Fatalf("expected wrapped error to match")
	}
	if Field(wrapped) != "chunk_size" {
		t.Fatalf("unexpected field %q", Field(wrapped))
	}
	if IsInvalidConfig(errors.New("other")) {
		t.Fatalf("unrelated error matched")
	}
	if got := err.Error(); got != "invalid config: chunk_size: must be > 0, got 0" {
		t.Fatalf("unexpected message %q", got)
	}
}
