package manager

import (
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"

	"edgellm/internal/registry"
	"edgellm/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	sess, loading, path, lastErr := m.sess, m.loading, m.modelPath, m.err
	m.mu.RUnlock()

	resp := sess.Status()
	if loading {
		resp.State = "loading"
	}
	if resp.ModelPath == "" {
		resp.ModelPath = path
	}
	resp.Error = lastErr
	resp.UptimeSeconds = int64(time.Since(m.startTime).Seconds())
	return resp
}

// ListModels describes the models in the models dir. Without a models dir it
// lists only the loaded model. Files with unreadable headers are skipped and
// logged.
func (m *Manager) ListModels() ([]types.Model, error) {
	if m.cfg.ModelsDir == "" {
		path := m.Session().ModelPath()
		if path == "" {
			return []types.Model{}, nil
		}
		mdl, err := registry.Describe(path)
		if err != nil {
			return nil, err
		}
		return []types.Model{mdl}, nil
	}
	models, err := registry.LoadDir(m.cfg.ModelsDir)
	var skipped *multierror.Error
	switch {
	case errors.As(err, &skipped):
		m.log.Warn().Err(err).Msg("skipped unreadable models")
	case err != nil:
		return nil, err
	}
	if models == nil {
		models = []types.Model{}
	}
	return models, nil
}
