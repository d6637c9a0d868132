package session

import (
	"edgellm/internal/common/cfgerr"
	"edgellm/pkg/types"
)

// AddMessage appends a message to the history.
func (s *Session) AddMessage(role types.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkReady("add_message"); err != nil {
		return err
	}
	if !role.Valid() {
		return cfgerr.New("role", "unknown role %q", role)
	}
	if role == types.RoleSystem {
		s.setSystemPromptLocked(content)
		return nil
	}
	s.history = append(s.history, types.Message{Role: role, Content: content})
	return nil
}

// AddSystemPrompt sets the system prompt. The history holds at most one
// system message and it is always first: an existing one is overwritten.
func (s *Session) AddSystemPrompt(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkReady("add_system_prompt"); err != nil {
		return err
	}
	s.setSystemPromptLocked(content)
	return nil
}

func (s *Session) setSystemPromptLocked(content string) {
	if len(s.history) > 0 && s.history[0].Role == types.RoleSystem {
		s.history[0].Content = content
		return
	}
	s.history = append([]types.Message{{Role: types.RoleSystem, Content: content}}, s.history...)
}

// promptMessages returns the messages rendered for the next generation.
// Without StoreChats only the system prompt and the newest message are sent.
// Caller holds s.mu.
func (s *Session) promptMessages() []types.Message {
	if s.params.StoreChats || len(s.history) == 0 {
		return s.history
	}
	var out []types.Message
	if s.history[0].Role == types.RoleSystem && len(s.history) > 1 {
		out = append(out, s.history[0])
	}
	return append(out, s.history[len(s.history)-1])
}

// dropLastUser removes the trailing user message appended by a generation
// that did not complete or whose turn is not retained. Caller holds s.mu.
func (s *Session) dropLastUser() {
	if n := len(s.history); n > 0 && s.history[n-1].Role == types.RoleUser {
		s.history = s.history[:n-1]
	}
}
