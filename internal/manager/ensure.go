package manager

import (
	"context"

	"edgellm/internal/registry"
	"edgellm/internal/session"
)

// Load replaces the current session with a fresh one holding the model at
// path. The previous session is closed first; if it is streaming a response
// its busy error is returned and nothing changes. On failure the manager
// keeps the new, unloaded session and Status reports the error.
func (m *Manager) Load(ctx context.Context, path string) error {
	sess, err := m.beginLoad(path)
	if err != nil {
		return err
	}
	return m.finishLoad(ctx, sess, path)
}

// Switch resolves modelID in the models dir and loads it in the background.
// The previous session is closed before Switch returns; callers poll Status
// or Ready to observe the outcome of the load.
func (m *Manager) Switch(ctx context.Context, modelID string) error {
	path, err := m.resolveModel(modelID)
	if err != nil {
		return err
	}
	return m.LoadAsync(ctx, path)
}

// LoadAsync is Load running in the background. Errors closing the previous
// session are returned directly; the load outcome is reported by Status.
// Close waits for it to finish.
func (m *Manager) LoadAsync(ctx context.Context, path string) error {
	sess, err := m.beginLoad(path)
	if err != nil {
		return err
	}
	bg := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = m.finishLoad(bg, sess, path)
	}()
	return nil
}

// beginLoad closes the current session and installs a fresh one.
func (m *Manager) beginLoad(path string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		return nil, loadingError{path: m.modelPath}
	}
	if err := m.sess.Close(); err != nil {
		return nil, err
	}
	m.sess = session.New(m.cfg.Session)
	m.loading = true
	m.modelPath = path
	m.err = ""
	return m.sess, nil
}

func (m *Manager) finishLoad(ctx context.Context, sess *session.Session, path string) error {
	m.log.Info().Str("path", path).Msg("model load start")
	err := sess.Load(ctx, path, m.cfg.Params)
	if err == nil && m.cfg.SystemPrompt != "" {
		err = sess.AddSystemPrompt(m.cfg.SystemPrompt)
	}

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.err = err.Error()
	}
	m.mu.Unlock()
	if err != nil {
		m.log.Error().Err(err).Str("path", path).Msg("model load failed")
		return err
	}
	m.log.Info().Str("path", path).Int("context_size", sess.ContextSize()).Msg("model load done")
	return nil
}

func (m *Manager) resolveModel(modelID string) (string, error) {
	if modelID == "" || m.cfg.ModelsDir == "" {
		return "", ErrModelNotFound(modelID)
	}
	models, err := registry.LoadDir(m.cfg.ModelsDir)
	if err != nil {
		m.log.Warn().Err(err).Msg("scan models dir")
	}
	for _, mdl := range models {
		if mdl.ID == modelID {
			return mdl.Path, nil
		}
	}
	return "", ErrModelNotFound(modelID)
}
