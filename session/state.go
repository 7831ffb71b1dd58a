package session

import "sync"

// State is everything the command loop and the protocol share for one run.
type State struct {
	Registry *Registry

	mu            sync.RWMutex
	loggerStarted bool
}

// NewState builds a State over a registry of the given sensor names.
func NewState(names ...string) (*State, error) {
	r, err := NewRegistry(names...)
	if err != nil {
		return nil, err
	}
	return &State{Registry: r}, nil
}

// LoggerStarted is the logger state the host believes it set last. The device
// never confirms it.
func (s *State) LoggerStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggerStarted
}

// SetLoggerStarted records the believed logger state.
func (s *State) SetLoggerStarted(started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggerStarted = started
}
