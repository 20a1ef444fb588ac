package state

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStorage is a process-local Storage used when Redis is not configured.
type MemoryStorage struct {
	mu     sync.Mutex
	states map[int64]*ChatState
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{states: make(map[int64]*ChatState)}
}

func (s *MemoryStorage) GetState(_ context.Context, chatID int64) (*ChatState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[chatID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return cloneState(st), nil
}

func (s *MemoryStorage) SetState(_ context.Context, chatID int64, state *ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UpdatedAt = time.Now().UTC()
	s.states[chatID] = cloneState(state)
	return nil
}

func (s *MemoryStorage) ClearState(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, chatID)
	return nil
}

func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*ChatState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ChatState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, cloneState(st))
	}
	return out, nil
}

func cloneState(state *ChatState) *ChatState {
	if state == nil {
		return nil
	}

	copied := *state
	copied.Data = maps.Clone(state.Data)
	return &copied
}
