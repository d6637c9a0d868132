package httpapi

import "edgellm/internal/rag"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// chatTimeout bounds a /chat request. Zero means no additional timeout
// beyond server/connection timeouts.
var chatTimeout = int64(0) // seconds

// SetChatTimeoutSeconds sets the chat timeout in seconds (0 disables).
func SetChatTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	chatTimeout = sec
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// Window used by /chunk when the request leaves chunk_size at zero.
var (
	chunkSize    = rag.DefaultChunkSize
	chunkOverlap = rag.DefaultChunkOverlap
)

// SetChunkDefaults sets the /chunk window. Callers validate the pair first.
func SetChunkDefaults(size, overlap int) {
	chunkSize, chunkOverlap = size, overlap
}
