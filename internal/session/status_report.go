package session

import (
	"edgellm/pkg/types"
)

// Status builds a detailed status response for /status.
func (s *Session) Status() types.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	resp := types.StatusResponse{
		SessionID:      s.id,
		State:          string(s.state),
		ModelPath:      s.modelPath,
		ContextSize:    s.ctxSize,
		Messages:       len(s.history),
		LastTokens:     s.last.TokensGenerated,
		UptimeSeconds:  int64(now.Sub(s.created).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if s.completed {
		resp.TokensPerSecond = s.last.TokensPerSecond()
	}
	return resp
}
