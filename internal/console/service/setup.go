package service

import "sync"

// SetupState tracks whether first-run setup has produced an administrator
// account. It is an explicitly constructed, injected instance scoped to the
// process, shared by the token and auth services.
type SetupState struct {
	mu       sync.Mutex
	complete bool
}

func NewSetupState(complete bool) *SetupState {
	return &SetupState{complete: complete}
}

func (s *SetupState) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

func (s *SetupState) Set(complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete = complete
}
