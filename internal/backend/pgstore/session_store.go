package pgstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SessionStore guarda el jti de cada token de sesion vigente y permite revocarlos, de a uno o por usuario.
type SessionStore interface {
	Store(ctx context.Context, jti, userID string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Revoke(ctx context.Context, jti string) error
	RevokeUser(ctx context.Context, userID string) error
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]memorySession
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		items: make(map[string]memorySession),
	}
}

func (s *memorySessionStore) Store(_ context.Context, jti, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.items[jti] = memorySession{userID: userID, expiresAt: time.Now().UTC().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Exists(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	if time.Now().UTC().After(item.expiresAt) {
		delete(s.items, jti)
		return false, nil
	}
	return true, nil
}

func (s *memorySessionStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, jti)
	return nil
}

func (s *memorySessionStore) RevokeUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, item := range s.items {
		if item.userID == userID {
			delete(s.items, jti)
		}
	}
	return nil
}
