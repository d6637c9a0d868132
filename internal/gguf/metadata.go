package gguf

import "math"

// Architecture returns general.architecture (e.g. "llama").
func (m *Metadata) Architecture() string {
	s, _ := m.String("general.architecture")
	return s
}

// Name returns general.name when present.
func (m *Metadata) Name() string {
	s, _ := m.String("general.name")
	return s
}

// ContextSize returns the trained context length, looked up under
// "<arch>.context_length" first and "general.context_length" second.
// Values that do not fit an int32 are treated as absent.
func (m *Metadata) ContextSize() (int, bool) {
	keys := []string{"general.context_length"}
	if arch := m.Architecture(); arch != "" {
		keys = append([]string{arch + ".context_length"}, keys...)
	}
	for _, k := range keys {
		if n, ok := m.Uint(k); ok && n > 0 && n <= math.MaxInt32 {
			return int(n), true
		}
	}
	return 0, false
}

// ChatTemplate returns the model-provided chat template (tokenizer.chat_template).
func (m *Metadata) ChatTemplate() (string, bool) {
	s, ok := m.String("tokenizer.chat_template")
	return s, ok && s != ""
}

// String returns the string value stored under key.
func (m *Metadata) String(key string) (string, bool) {
	s, ok := m.KV[key].(string)
	return s, ok
}

// Uint returns the non-negative integer value stored under key, whatever its width.
func (m *Metadata) Uint(key string) (uint64, bool) {
	switch v := m.KV[key].(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case int8:
		return uint64(v), v >= 0
	case int16:
		return uint64(v), v >= 0
	case int32:
		return uint64(v), v >= 0
	case int64:
		return uint64(v), v >= 0
	}
	return 0, false
}
