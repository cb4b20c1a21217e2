package sessions

import (
	"slices"
	"sync"
	"time"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/application"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
)

// Session owns the documents and insights of one user session. Nothing is
// shared between sessions.
type Session struct {
	ID        string
	Documents documents.Store
	CreatedAt time.Time

	mu      sync.RWMutex
	current insights.Batch
	history []insights.Insight
}

// Record makes batch the current result and appends its insights to the
// session history.
func (s *Session) Record(batch insights.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = batch
	s.history = append(s.history, batch.Insights...)
}

func (s *Session) Current() insights.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Session) History() []insights.Insight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Registry hands out sessions by id, creating them on first use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	newStore func() documents.Store
	clock    application.Clock
}

func NewRegistry(newStore func() documents.Store, clock application.Clock) *Registry {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Registry{sessions: make(map[string]*Session), newStore: newStore, clock: clock}
}

func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{ID: id, Documents: r.newStore(), CreatedAt: r.clock.Now()}
		r.sessions[id] = s
	}
	return s
}

func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
