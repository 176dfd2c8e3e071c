package memstore

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"folio/internal/backend"
)

type account struct {
	identity     backend.Identity
	passwordHash []byte
}

// Accounts implementa backend.Accounts en memoria con tokens opacos.
type Accounts struct {
	mu         sync.Mutex
	accounts   map[string]account
	byEmail    map[string]string
	sessions   map[string]backend.Session
	sessionTTL time.Duration
}

func NewAccounts(sessionTTL time.Duration) *Accounts {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Accounts{
		accounts:   make(map[string]account),
		byEmail:    make(map[string]string),
		sessions:   make(map[string]backend.Session),
		sessionTTL: sessionTTL,
	}
}

func (a *Accounts) Create(_ context.Context, id, email, password, name string) (backend.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return backend.Identity{}, &backend.Error{
			Status:  http.StatusBadRequest,
			Type:    backend.TypeArgumentInvalid,
			Message: "Email is required and password must be at least 8 characters.",
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return backend.Identity{}, err
	}
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byEmail[email]; exists {
		return backend.Identity{}, &backend.Error{
			Status:  http.StatusConflict,
			Type:    backend.TypeUserAlreadyExists,
			Message: "A user with the same email already exists.",
		}
	}
	if _, exists := a.accounts[id]; exists {
		return backend.Identity{}, &backend.Error{
			Status:  http.StatusConflict,
			Type:    backend.TypeUserAlreadyExists,
			Message: "A user with the same id already exists.",
		}
	}
	identity := backend.Identity{
		ID:        id,
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	a.accounts[id] = account{identity: identity, passwordHash: hash}
	a.byEmail[email] = id
	return identity, nil
}

func (a *Accounts) CreateSession(_ context.Context, email, password string) (backend.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.byEmail[email]
	if !ok {
		return backend.Session{}, backend.InvalidCredentials()
	}
	acc := a.accounts[id]
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return backend.Session{}, backend.InvalidCredentials()
	}
	session := backend.Session{
		ID:        uuid.NewString(),
		UserID:    id,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(a.sessionTTL),
	}
	a.sessions[session.Token] = session
	return session, nil
}

func (a *Accounts) Current(_ context.Context, token string) (backend.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.lookup(token)
	if err != nil {
		return backend.Identity{}, err
	}
	return a.accounts[session.UserID].identity, nil
}

func (a *Accounts) DeleteSession(_ context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.lookup(token); err != nil {
		return err
	}
	delete(a.sessions, token)
	return nil
}

func (a *Accounts) DeleteSessions(_ context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.lookup(token)
	if err != nil {
		return err
	}
	for t, s := range a.sessions {
		if s.UserID == session.UserID {
			delete(a.sessions, t)
		}
	}
	return nil
}

func (a *Accounts) UpdateName(_ context.Context, token, name string) (backend.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, err := a.lookup(token)
	if err != nil {
		return backend.Identity{}, err
	}
	acc := a.accounts[session.UserID]
	acc.identity.Name = strings.TrimSpace(name)
	a.accounts[session.UserID] = acc
	return acc.identity, nil
}

// ActiveSessions cuenta las sesiones vigentes de una identidad.
func (a *Accounts) ActiveSessions(userID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	now := time.Now().UTC()
	for _, s := range a.sessions {
		if s.UserID == userID && now.Before(s.ExpiresAt) {
			n++
		}
	}
	return n
}

func (a *Accounts) lookup(token string) (backend.Session, error) {
	session, ok := a.sessions[token]
	if !ok || strings.TrimSpace(token) == "" {
		return backend.Session{}, backend.Unauthorized("The current user is not authorized to perform the requested action.")
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		delete(a.sessions, token)
		return backend.Session{}, backend.Unauthorized("Session expired.")
	}
	return session, nil
}
