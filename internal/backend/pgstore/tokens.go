package pgstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"folio/internal/backend"
)

const sessionTokenType = "session"

var (
	ErrTokenInvalid = errors.New("session token invalid")
	ErrTokenExpired = errors.New("session token expired")
	ErrTokenRevoked = errors.New("session token revoked")
)

// TokenClaims son los claims del token de sesion. ID (jti) identifica la sesion en el SessionStore.
type TokenClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService emite y valida tokens de sesion HS256.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  SessionStore
}

func NewTokenService(secret string, ttl time.Duration, store SessionStore) *TokenService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "folio",
		store:  store,
	}
}

// Issue firma un token nuevo para la identidad y registra su jti.
func (s *TokenService) Issue(ctx context.Context, identity backend.Identity) (backend.Session, error) {
	if len(s.secret) == 0 {
		return backend.Session{}, ErrTokenInvalid
	}
	now := time.Now().UTC()
	jti := uuid.NewString()
	expiresAt := now.Add(s.ttl)
	claims := TokenClaims{
		UserID:    identity.ID,
		Email:     identity.Email,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return backend.Session{}, err
	}
	if err := s.store.Store(ctx, jti, identity.ID, s.ttl); err != nil {
		return backend.Session{}, err
	}
	return backend.Session{
		ID:        jti,
		UserID:    identity.ID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifica firma, vencimiento y que la sesion no haya sido revocada.
func (s *TokenService) Validate(ctx context.Context, token string) (TokenClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return TokenClaims{}, err
	}
	ok, err := s.store.Exists(ctx, claims.ID)
	if err != nil {
		return TokenClaims{}, err
	}
	if !ok {
		return TokenClaims{}, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke cierra la sesion del token.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	return s.store.Revoke(ctx, claims.ID)
}

// RevokeAll cierra todas las sesiones del usuario del token.
func (s *TokenService) RevokeAll(ctx context.Context, token string) error {
	claims, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	return s.store.RevokeUser(ctx, claims.UserID)
}

func (s *TokenService) parse(token string) (TokenClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return TokenClaims{}, ErrTokenInvalid
	}
	var claims TokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenInvalid
	}
	if !s.validClaims(claims) {
		return TokenClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) validClaims(claims TokenClaims) bool {
	if claims.TokenType != sessionTokenType || strings.TrimSpace(claims.ID) == "" {
		return false
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID {
		return false
	}
	return claims.Issuer == s.issuer
}
