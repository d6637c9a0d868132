//go:build !llama

package engine

// Llama is a stub that satisfies Engine but refuses to load without the
// 'llama' build tag.
type Llama struct{}

// NewLlama returns the stub engine.
func NewLlama() Engine { return Llama{} }

// Available reports whether this binary was built with llama support.
func Available() bool { return false }

func (Llama) Load(modelPath string, opts Options) (Handle, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
