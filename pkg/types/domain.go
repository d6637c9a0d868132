package types

// Model represents a GGUF model file discovered on disk.
type Model struct {
	// Stable identifier for the model (file name).
	// example: smollm2-360m-instruct-q8_0.gguf
	ID string `json:"id" example:"smollm2-360m-instruct-q8_0.gguf"`
	// Human-friendly name, from general.name when present.
	// example: SmolLM2 360M Instruct
	Name string `json:"name" example:"SmolLM2 360M Instruct"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/smollm2-360m-instruct-q8_0.gguf
	Path string `json:"path" example:"/home/user/models/smollm2-360m-instruct-q8_0.gguf"`
	// Model architecture from GGUF metadata.
	// example: llama
	Family string `json:"family,omitempty" example:"llama"`
	// Trained context length from GGUF metadata (0 when unknown).
	// example: 8192
	ContextSize int `json:"context_size,omitempty" example:"8192"`
}

// Role tags a chat message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a conversation history.
type Message struct {
	Role    Role   `json:"role" example:"user"`
	Content string `json:"content" example:"How are you?"`
}
