package memory

import (
	"context"
	"sync"
	"time"

	"github.com/99minutos/bank-teller/internal/core/domain"
	"github.com/99minutos/bank-teller/internal/core/ports"
)

type sessionEntry struct {
	user      domain.User
	expiresAt time.Time
}

// SessionStore keeps sessions in process. Expired entries are dropped on read
// and swept whenever a new session is saved.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]sessionEntry), now: time.Now}
}

var _ ports.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) Save(_ context.Context, id string, user *domain.User, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for sid, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, sid)
		}
	}
	s.sessions[id] = sessionEntry{user: *user, expiresAt: now.Add(ttl)}
	return nil
}

func (s *SessionStore) Load(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, domain.ErrSessionNotFound
	}
	u := e.user
	return &u, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
