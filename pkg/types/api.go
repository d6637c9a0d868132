package types

// ChatRequest is the payload of POST /chat.
type ChatRequest struct {
	// Required user message appended to the conversation.
	// example: How are you?
	Message string `json:"message" example:"How are you?"`
}

// SystemPromptRequest is the payload of POST /system.
type SystemPromptRequest struct {
	// System prompt placed at the head of the conversation, replacing any previous one.
	// example: You are a helpful assistant
	Content string `json:"content" example:"You are a helpful assistant"`
}

// ChatDone is the final NDJSON line of a /chat stream.
type ChatDone struct {
	Done bool `json:"done" example:"true"`
	// Full assistant response.
	Content string `json:"content"`
	// Number of tokens generated for this response.
	// example: 42
	Tokens int `json:"tokens" example:"42"`
	// Throughput of this response.
	// example: 18.5
	TokensPerSecond float64 `json:"tokens_per_second" example:"18.5"`
}

// ChunkRequest is the payload of POST /chunk. A zero ChunkSize selects the
// configured window and overlap (400/80 unless overridden); a zero
// ChunkOverlap with an explicit ChunkSize means no overlap.
type ChunkRequest struct {
	// Source text to split.
	Text string `json:"text"`
	// Window width in words.
	// example: 400
	ChunkSize int `json:"chunk_size,omitempty" example:"400"`
	// Words shared by consecutive chunks.
	// example: 80
	ChunkOverlap int `json:"chunk_overlap,omitempty" example:"80"`
}

// ChunkResponse wraps the chunks produced by POST /chunk.
type ChunkResponse struct {
	Chunks []string `json:"chunks"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// SwitchResponse acknowledges POST /models/{id}/load. The load continues in
// the background; poll GET /status for the outcome.
type SwitchResponse struct {
	// example: smollm2-360m-instruct-q8_0.gguf
	Model string `json:"model" example:"smollm2-360m-instruct-q8_0.gguf"`
	// example: loading
	State string `json:"state" example:"loading"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Session identifier.
	// example: 3f2b8c1e-6a0d-4a8b-9a57-0f3c2d9e1b44
	SessionID string `json:"session_id" example:"3f2b8c1e-6a0d-4a8b-9a57-0f3c2d9e1b44"`
	// Lifecycle state (unloaded, loading, ready, generating, closed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Loaded model file.
	ModelPath string `json:"model_path,omitempty"`
	// Runtime context size in tokens.
	// example: 2048
	ContextSize int `json:"context_size" example:"2048"`
	// Messages currently held in the conversation history.
	// example: 3
	Messages int `json:"messages" example:"3"`
	// Tokens generated by the last completed response.
	// example: 42
	LastTokens int `json:"last_tokens" example:"42"`
	// Throughput of the last completed response (0 before the first one).
	// example: 18.5
	TokensPerSecond float64 `json:"tokens_per_second" example:"18.5"`
	// Last model load error, if any.
	Error string `json:"error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
