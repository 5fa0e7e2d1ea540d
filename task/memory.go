package task

import (
	"slices"
	"sync"
)

// MemoryStore keeps tasks in a slice for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: []string{}}
}

// List returns a copy of the current tasks.
func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

// Append adds text to the end of the list.
func (s *MemoryStore) Append(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, text)
	return nil
}

// Remove deletes the first occurrence of text.
func (s *MemoryStore) Remove(text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.tasks, text)
	if i < 0 {
		return false, nil
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return true, nil
}
