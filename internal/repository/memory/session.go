package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shestoi/railbook/internal/repository"
)

type session struct {
	userID    string
	expiresAt time.Time
}

// SessionRepository keeps sessions in a map; expired entries are dropped on access.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]session
	now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]session),
		now:      time.Now,
	}
}

func (r *SessionRepository) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.sessions[id] = session{userID: userID, expiresAt: r.now().Add(ttl)}
	return id, nil
}

func (r *SessionRepository) GetUserIDBySession(ctx context.Context, sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.liveLocked(sessionID)
	if !ok {
		return "", repository.ErrSessionNotFound
	}
	return s.userID, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

func (r *SessionRepository) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.liveLocked(sessionID)
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.expiresAt = r.now().Add(ttl)
	r.sessions[sessionID] = s
	return nil
}

func (r *SessionRepository) liveLocked(sessionID string) (session, bool) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return session{}, false
	}
	if !r.now().Before(s.expiresAt) {
		delete(r.sessions, sessionID)
		return session{}, false
	}
	return s, true
}
