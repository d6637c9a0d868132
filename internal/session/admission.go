package session

// tryAcquireGeneration reserves the single in-flight generation slot without
// blocking. A second caller gets a busy error instead of queueing behind the
// active stream. Returns a release func that is safe to call once.
func (s *Session) tryAcquireGeneration(op string) (func(), error) {
	select {
	case s.genCh <- struct{}{}:
		return func() { <-s.genCh }, nil
	default:
		return func() {}, sessionBusyError{op: op, state: StateGenerating}
	}
}
