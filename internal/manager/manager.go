package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"edgellm/internal/session"
)

// Manager owns the single live session behind the HTTP surface.
type Manager struct {
	mu        sync.RWMutex
	cfg       Config
	sess      *session.Session
	modelPath string
	loading   bool
	err       string
	log       zerolog.Logger
	startTime time.Time

	wg sync.WaitGroup // background switches
}

// New returns a manager holding an unloaded session.
func New(cfg Config) *Manager {
	m := &Manager{cfg: cfg, log: zerolog.Nop(), startTime: time.Now()}
	if cfg.Session.Logger != nil {
		m.log = *cfg.Session.Logger
	}
	m.sess = session.New(cfg.Session)
	return m
}

// Session returns the current session.
func (m *Manager) Session() *session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess
}

// Ready reports whether a model is loaded and the session is open, including
// while a response is streaming.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loading {
		return false
	}
	switch m.sess.State() {
	case session.StateReady, session.StateGenerating:
		return true
	}
	return false
}

// Close waits for background switches and closes the current session.
func (m *Manager) Close() error {
	m.wg.Wait()
	return m.Session().Close()
}
