package pgstore

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"folio/internal/backend"
)

const uniqueViolation = "23505"

// Accounts implementa backend.Accounts con la tabla accounts y tokens de TokenService.
type Accounts struct {
	pool       *pgxpool.Pool
	tokens     *TokenService
	logger     *zap.Logger
	bcryptCost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewAccounts(pool *pgxpool.Pool, tokens *TokenService, logger *zap.Logger) *Accounts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{pool: pool, tokens: tokens, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

func (a *Accounts) Create(ctx context.Context, id, email, password, name string) (backend.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return backend.Identity{}, &backend.Error{
			Status:  http.StatusBadRequest,
			Type:    backend.TypeArgumentInvalid,
			Message: "Email is required and password must be at least 8 characters.",
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return backend.Identity{}, err
	}
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	const query = `
		INSERT INTO accounts (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, email, name, created_at
	`
	var identity backend.Identity
	err = a.pool.QueryRow(ctx, query, id, email, strings.TrimSpace(name), hash).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return backend.Identity{}, &backend.Error{
				Status:  http.StatusConflict,
				Type:    backend.TypeUserAlreadyExists,
				Message: "A user with the same id or email already exists.",
			}
		}
		return backend.Identity{}, err
	}
	return identity, nil
}

func (a *Accounts) CreateSession(ctx context.Context, email, password string) (backend.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const query = `
		SELECT id, email, name, created_at, password_hash
		FROM accounts
		WHERE email = $1
	`
	var identity backend.Identity
	var hash []byte
	err := a.pool.QueryRow(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.CreatedAt,
		&hash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Un email desconocido cuesta lo mismo que una contrasena incorrecta.
		_ = bcrypt.CompareHashAndPassword(a.dummyHash(), []byte(password))
		return backend.Session{}, backend.InvalidCredentials()
	}
	if err != nil {
		return backend.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return backend.Session{}, backend.InvalidCredentials()
	}
	session, err := a.tokens.Issue(ctx, identity)
	if err != nil {
		return backend.Session{}, err
	}
	a.logger.Info("session created", zap.String("user_id", identity.ID))
	return session, nil
}

// dummyHash es un hash con el mismo costo que los reales, calculado una sola vez.
func (a *Accounts) dummyHash() []byte {
	a.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), a.bcryptCost)
		if err != nil {
			a.logger.Warn("generate dummy password hash", zap.Error(err))
			return
		}
		a.dummy = hash
	})
	return a.dummy
}

func (a *Accounts) Current(ctx context.Context, token string) (backend.Identity, error) {
	claims, err := a.validate(ctx, token)
	if err != nil {
		return backend.Identity{}, err
	}
	return a.byID(ctx, claims.UserID)
}

func (a *Accounts) DeleteSession(ctx context.Context, token string) error {
	return tokenError(a.tokens.Revoke(ctx, token))
}

func (a *Accounts) DeleteSessions(ctx context.Context, token string) error {
	return tokenError(a.tokens.RevokeAll(ctx, token))
}

func (a *Accounts) UpdateName(ctx context.Context, token, name string) (backend.Identity, error) {
	claims, err := a.validate(ctx, token)
	if err != nil {
		return backend.Identity{}, err
	}
	const query = `
		UPDATE accounts SET name = $2
		WHERE id = $1
		RETURNING id, email, name, created_at
	`
	var identity backend.Identity
	err = a.pool.QueryRow(ctx, query, claims.UserID, strings.TrimSpace(name)).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return backend.Identity{}, backend.Unauthorized("The account for this session no longer exists.")
	}
	return identity, err
}

func (a *Accounts) validate(ctx context.Context, token string) (TokenClaims, error) {
	claims, err := a.tokens.Validate(ctx, token)
	if err != nil {
		return TokenClaims{}, tokenError(err)
	}
	return claims, nil
}

func (a *Accounts) byID(ctx context.Context, id string) (backend.Identity, error) {
	const query = `
		SELECT id, email, name, created_at
		FROM accounts
		WHERE id = $1
	`
	var identity backend.Identity
	err := a.pool.QueryRow(ctx, query, id).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return backend.Identity{}, backend.Unauthorized("The account for this session no longer exists.")
	}
	return identity, err
}

// tokenError traduce las fallas de token a la falla 401 del backend; el resto pasa sin cambios.
func tokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTokenExpired):
		return backend.Unauthorized("Session expired.")
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenRevoked):
		return backend.Unauthorized("The current user is not authorized to perform the requested action.")
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
