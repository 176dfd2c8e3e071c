package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/domain"
)

// SessionState es el estado de autenticacion de un cliente.
type SessionState int

const (
	SessionAnonymous SessionState = iota
	SessionAuthenticating
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionAuthenticating:
		return "authenticating"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// RegisterInput son los datos de alta de una cuenta.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=1,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// SessionManager mantiene la sesion de un cliente y su perfil.
// Una sola identidad por cliente: iniciar sesion con otra invalida antes todas las sesiones vigentes.
type SessionManager struct {
	logger    *zap.Logger
	accounts  backend.Accounts
	profiles  *ProfileService
	projects  *ProjectService
	limiter   LoginLimiter
	validator *InputValidator

	// op serializa las operaciones; mu protege los campos de estado.
	op       sync.Mutex
	mu       sync.RWMutex
	state    SessionState
	token    string
	identity backend.Identity
	profile  domain.User
}

func NewSessionManager(
	logger *zap.Logger,
	accounts backend.Accounts,
	profiles *ProfileService,
	projects *ProjectService,
	limiter LoginLimiter,
) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		logger:    logger,
		accounts:  accounts,
		profiles:  profiles,
		projects:  projects,
		limiter:   limiter,
		validator: NewInputValidator(),
	}
}

// SessionFactory crea un SessionManager por cliente con dependencias compartidas.
type SessionFactory struct {
	Logger   *zap.Logger
	Accounts backend.Accounts
	Profiles *ProfileService
	Projects *ProjectService
	Limiter  LoginLimiter
}

func (f SessionFactory) New() *SessionManager {
	return NewSessionManager(f.Logger, f.Accounts, f.Profiles, f.Projects, f.Limiter)
}

func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *SessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *SessionManager) Identity() backend.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// Profile devuelve el perfil en memoria; ok es false si no hay sesion.
func (m *SessionManager) Profile() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != SessionAuthenticated {
		return domain.User{}, false
	}
	return m.profile, true
}

// Resume restaura una sesion existente a partir de su token.
func (m *SessionManager) Resume(ctx context.Context, token string) (domain.User, error) {
	if m.accounts == nil || m.profiles == nil {
		return domain.User{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrUnauthorized
	}
	m.op.Lock()
	defer m.op.Unlock()

	if cur, ok := m.authenticatedWith(token); ok {
		return cur, nil
	}
	m.setState(SessionAuthenticating)
	return m.establish(ctx, token, false)
}

// Login inicia sesion. Con una sesion de la misma identidad devuelve el perfil en memoria sin llamar al backend.
func (m *SessionManager) Login(ctx context.Context, email, password string) (domain.User, error) {
	if m.accounts == nil || m.profiles == nil {
		return domain.User{}, ErrNotConfigured
	}
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	m.op.Lock()
	defer m.op.Unlock()

	if cur, ok := m.authenticatedAs(email); ok {
		return cur, nil
	}
	if m.limiter != nil && !m.limiter.Allow(email) {
		return domain.User{}, ErrRateLimited
	}
	if err := m.invalidateOther(ctx); err != nil {
		return domain.User{}, err
	}

	m.setState(SessionAuthenticating)
	session, err := m.accounts.CreateSession(ctx, email, password)
	if err != nil {
		m.reset()
		if backend.IsUnauthorized(err) {
			if m.limiter != nil {
				m.limiter.Failure(email)
			}
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("create session: %w", err)
	}
	if m.limiter != nil {
		m.limiter.Reset(email)
	}
	return m.establish(ctx, session.Token, true)
}

// Register crea la cuenta, abre la sesion y crea el perfil.
func (m *SessionManager) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if m.accounts == nil || m.profiles == nil {
		return domain.User{}, ErrNotConfigured
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := m.validator.Validate(in); err != nil {
		return domain.User{}, err
	}
	m.op.Lock()
	defer m.op.Unlock()

	if _, ok := m.authenticatedAs(in.Email); ok {
		return domain.User{}, ErrAccountExists
	}
	if err := m.invalidateOther(ctx); err != nil {
		return domain.User{}, err
	}

	m.setState(SessionAuthenticating)
	if _, err := m.accounts.Create(ctx, uuid.NewString(), in.Email, in.Password, in.Name); err != nil {
		m.reset()
		if backend.IsConflict(err) {
			return domain.User{}, ErrAccountExists
		}
		return domain.User{}, fmt.Errorf("create account: %w", err)
	}
	session, err := m.accounts.CreateSession(ctx, in.Email, in.Password)
	if err != nil {
		m.reset()
		if backend.IsUnauthorized(err) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("create session: %w", err)
	}
	return m.establish(ctx, session.Token, true)
}

// Logout cierra la sesion actual y descarta los datos en memoria.
func (m *SessionManager) Logout(ctx context.Context) error {
	return m.logout(ctx, false)
}

// LogoutAll cierra todas las sesiones de la identidad.
func (m *SessionManager) LogoutAll(ctx context.Context) error {
	return m.logout(ctx, true)
}

func (m *SessionManager) logout(ctx context.Context, all bool) error {
	m.op.Lock()
	defer m.op.Unlock()

	token := m.Token()
	if m.State() != SessionAuthenticated || token == "" {
		m.reset()
		return nil
	}
	var err error
	if all {
		err = m.accounts.DeleteSessions(ctx, token)
	} else {
		err = m.accounts.DeleteSession(ctx, token)
	}
	m.reset()
	if err != nil && !backend.IsUnauthorized(err) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RefreshProfile vuelve a leer el perfil del backend.
func (m *SessionManager) RefreshProfile(ctx context.Context) (domain.User, error) {
	m.op.Lock()
	defer m.op.Unlock()

	if m.State() != SessionAuthenticated {
		return domain.User{}, ErrUnauthorized
	}
	profile, err := m.profiles.Ensure(ctx, m.Identity())
	if err != nil {
		return domain.User{}, err
	}
	m.mu.Lock()
	m.profile = profile
	m.mu.Unlock()
	return profile, nil
}

// UpdateProfile guarda el patch y, si cambia el nombre, lo propaga a la identidad.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (domain.User, error) {
	m.op.Lock()
	defer m.op.Unlock()

	if m.State() != SessionAuthenticated {
		return domain.User{}, ErrUnauthorized
	}
	identity := m.Identity()
	profile, err := m.profiles.Update(ctx, identity.ID, patch)
	if err != nil {
		return domain.User{}, err
	}
	if patch.Name != nil && profile.Name != identity.Name {
		updated, err := m.accounts.UpdateName(ctx, m.Token(), profile.Name)
		if err != nil {
			m.logger.Warn("update identity name failed", zap.String("user_id", identity.ID), zap.Error(err))
		} else {
			identity = updated
		}
	}
	m.mu.Lock()
	m.profile = profile
	m.identity = identity
	m.mu.Unlock()
	return profile, nil
}

// establish confirma la sesion y reconcilia el perfil. Si owned, la sesion se borra ante una falla.
func (m *SessionManager) establish(ctx context.Context, token string, owned bool) (domain.User, error) {
	identity, err := m.accounts.Current(ctx, token)
	if err != nil {
		m.abandon(ctx, token, owned)
		if backend.IsUnauthorized(err) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("get current identity: %w", err)
	}
	profile, err := m.profiles.Ensure(ctx, identity)
	if err != nil {
		m.logger.Error("profile reconciliation failed", zap.String("user_id", identity.ID), zap.Error(err))
		m.abandon(ctx, token, owned)
		return domain.User{}, err
	}

	m.mu.Lock()
	m.state = SessionAuthenticated
	m.token = token
	m.identity = identity
	m.profile = profile
	m.mu.Unlock()
	return profile, nil
}

func (m *SessionManager) abandon(ctx context.Context, token string, owned bool) {
	if owned {
		if err := m.accounts.DeleteSession(ctx, token); err != nil && !backend.IsUnauthorized(err) {
			m.logger.Warn("delete abandoned session failed", zap.Error(err))
		}
	}
	m.reset()
}

// invalidateOther cierra todas las sesiones de la identidad actual, si la hay.
func (m *SessionManager) invalidateOther(ctx context.Context) error {
	token := m.Token()
	if m.State() != SessionAuthenticated || token == "" {
		return nil
	}
	previous := m.Identity()
	if err := m.accounts.DeleteSessions(ctx, token); err != nil && !backend.IsUnauthorized(err) {
		return fmt.Errorf("invalidate sessions: %w", err)
	}
	m.logger.Info("sessions invalidated for identity switch", zap.String("user_id", previous.ID))
	m.reset()
	return nil
}

func (m *SessionManager) authenticatedAs(email string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == SessionAuthenticated && normalizeEmail(m.identity.Email) == email {
		return m.profile, true
	}
	return domain.User{}, false
}

func (m *SessionManager) authenticatedWith(token string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == SessionAuthenticated && m.token == token {
		return m.profile, true
	}
	return domain.User{}, false
}

func (m *SessionManager) setState(state SessionState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// reset vuelve a anonimo y descarta la copia en memoria del perfil y de los proyectos.
func (m *SessionManager) reset() {
	m.mu.Lock()
	ownerID := m.identity.ID
	m.state = SessionAnonymous
	m.token = ""
	m.identity = backend.Identity{}
	m.profile = domain.User{}
	m.mu.Unlock()
	if ownerID != "" && m.projects != nil {
		m.projects.Forget(ownerID)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAuthError indica si el error corresponde a credenciales o sesion invalidas.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthorized)
}
