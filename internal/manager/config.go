package manager

import (
	"edgellm/internal/session"
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// Session configures every session the manager creates.
	Session session.Config
	Params  session.InferenceParams
	// ModelsDir is scanned by ListModels and Switch. Empty limits both to the
	// loaded model.
	ModelsDir string
	// SystemPrompt is installed after every successful load when non-empty.
	SystemPrompt string
}
