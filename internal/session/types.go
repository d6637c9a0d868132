package session

import "time"

// State represents the lifecycle state of a session.
type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateGenerating State = "generating"
	StateClosed     State = "closed"
)

// GenerationMetrics describes one generation pass.
type GenerationMetrics struct {
	TokensGenerated int
	Elapsed         time.Duration
}

// TokensPerSecond is 0 when no tokens were produced. A pass that produced
// tokens in no measurable time counts as 1ns.
func (m GenerationMetrics) TokensPerSecond() float64 {
	if m.TokensGenerated <= 0 {
		return 0
	}
	d := m.Elapsed
	if d <= 0 {
		d = time.Nanosecond
	}
	return float64(m.TokensGenerated) / d.Seconds()
}
