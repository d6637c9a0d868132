package manager

import (
	"context"
	"io"

	"edgellm/internal/session"
)

// Chat streams the response to message as NDJSON into w.
func (m *Manager) Chat(ctx context.Context, message string, w io.Writer, flush func()) error {
	sess, err := m.current()
	if err != nil {
		return err
	}
	return sess.StreamChat(ctx, message, w, flush)
}

// SetSystemPrompt installs content as the conversation's system prompt.
func (m *Manager) SetSystemPrompt(content string) error {
	sess, err := m.current()
	if err != nil {
		return err
	}
	return sess.AddSystemPrompt(content)
}

func (m *Manager) current() (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loading {
		return nil, loadingError{path: m.modelPath}
	}
	return m.sess, nil
}
