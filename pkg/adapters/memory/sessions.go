package memory

import (
	"context"
	"sync"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// SessionStore implements ports.SessionStore in memory.
// Safe for concurrent use.
type SessionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]*domain.Session)}
}

// Save persists the session. The stored copy is isolated from the caller's
// pointer, like a serializing store would be.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	copied := session.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session.ConversationID] = copied
	return nil
}

// Get retrieves a session by conversation ID.
func (s *SessionStore) Get(ctx context.Context, conversationID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Delete removes a session. Absent sessions are ignored.
func (s *SessionStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the conversation IDs with an active session.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
