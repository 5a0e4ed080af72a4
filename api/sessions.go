package api

import (
	"sync"

	"github.com/google/uuid"
	"github.com/meikuraledutech/chatflow"
)

// Sessions keeps the open editors, one per browser canvas.
// Editors live only in memory and are gone when closed or on restart.
type Sessions struct {
	mu      sync.RWMutex
	editors map[string]*chatflow.Editor
	open    func(projectName string) *chatflow.Editor
}

// NewSessions creates an empty registry. open builds a fresh editor; nil
// uses chatflow.NewEditor with a default canvas.
func NewSessions(open func(projectName string) *chatflow.Editor) *Sessions {
	if open == nil {
		open = func(name string) *chatflow.Editor { return chatflow.NewEditor(name, nil) }
	}
	return &Sessions{editors: map[string]*chatflow.Editor{}, open: open}
}

// Create opens a new editor and returns its session id.
func (s *Sessions) Create(projectName string) (string, *chatflow.Editor) {
	id := uuid.NewString()
	e := s.open(projectName)
	s.mu.Lock()
	s.editors[id] = e
	s.mu.Unlock()
	return id, e
}

// Get returns the editor for id.
func (s *Sessions) Get(id string) (*chatflow.Editor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.editors[id]
	return e, ok
}

// Close discards an editor. Unknown ids are ignored.
func (s *Sessions) Close(id string) {
	s.mu.Lock()
	delete(s.editors, id)
	s.mu.Unlock()
}

// Len returns the number of open editors.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.editors)
}
