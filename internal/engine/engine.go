// Package engine defines the narrow capability surface edgellm needs from a
// native token-generation runtime: load a model file, prime it with a prompt,
// then pull one token at a time until end of sequence.
//
// The llama.cpp implementation is compiled only with the 'llama' build tag.
// Default builds get a stub whose Load fails with a dependency-unavailable
// error so CGO-free binaries and tests never touch native code.
package engine

import "context"

// Engine loads model files into handles.
type Engine interface {
	// Load maps the model at modelPath and allocates a context for it.
	Load(modelPath string, opts Options) (Handle, error)
}

// Handle is one loaded model owned by exactly one session.
type Handle interface {
	// Prime tokenizes prompt and feeds it to the model. It must be called
	// before Next for every generation pass.
	Prime(ctx context.Context, prompt string) error
	// Next returns the next generated token piece. It returns io.EOF once the
	// model reaches end of sequence or the token budget.
	Next(ctx context.Context) (string, error)
	// Abort stops the current generation pass. The handle stays usable and a
	// later Prime starts a fresh pass.
	Abort() error
	// Close releases the model and its context.
	Close() error
}

// Options are the load and sampling parameters forwarded to the runtime.
type Options struct {
	ContextSize int // 0 = model default
	Threads     int
	UseMmap     bool
	UseMlock    bool
	Temperature float32
	MinP        float32
	MaxTokens   int // 0 = fill the context
	StopWords   []string
}
