package session

import (
	"math"

	"edgellm/internal/common/cfgerr"
)

// InferenceParams configures a load. The zero value is not valid; start
// from DefaultParams.
type InferenceParams struct {
	MinP        float32 `json:"min_p" yaml:"min_p" toml:"min_p"`
	Temperature float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	StoreChats  bool    `json:"store_chats" yaml:"store_chats" toml:"store_chats"`
	// ContextSize of 0 uses the size recorded in the model file.
	ContextSize int `json:"context_size" yaml:"context_size" toml:"context_size"`
	// ChatTemplate overrides the template embedded in the model file.
	ChatTemplate string `json:"chat_template" yaml:"chat_template" toml:"chat_template"`
	BOSToken     string `json:"bos_token" yaml:"bos_token" toml:"bos_token"`
	EOSToken     string `json:"eos_token" yaml:"eos_token" toml:"eos_token"`
	NumThreads   int    `json:"num_threads" yaml:"num_threads" toml:"num_threads"`
	UseMmap      bool   `json:"use_mmap" yaml:"use_mmap" toml:"use_mmap"`
	UseMlock     bool   `json:"use_mlock" yaml:"use_mlock" toml:"use_mlock"`
	// MaxTokens caps one generation; 0 lets it run to the context limit.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() InferenceParams {
	return InferenceParams{
		MinP:        0.1,
		Temperature: 0.8,
		StoreChats:  true,
		NumThreads:  4,
		UseMmap:     true,
	}
}

// Validate checks the parameter invariants. Out-of-range values are
// rejected, never clamped.
func (p InferenceParams) Validate() error {
	if math.IsNaN(float64(p.MinP)) || p.MinP < 0 || p.MinP > 1 {
		return cfgerr.New("min_p", "must be in [0, 1], got %v", p.MinP)
	}
	if math.IsNaN(float64(p.Temperature)) || p.Temperature <= 0 {
		return cfgerr.New("temperature", "must be > 0, got %v", p.Temperature)
	}
	if p.NumThreads < 1 {
		return cfgerr.New("num_threads", "must be >= 1, got %d", p.NumThreads)
	}
	if p.ContextSize < 0 {
		return cfgerr.New("context_size", "must be >= 0, got %d", p.ContextSize)
	}
	if p.MaxTokens < 0 {
		return cfgerr.New("max_tokens", "must be >= 0, got %d", p.MaxTokens)
	}
	return nil
}
