package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"folio/internal/backend"
)

func TestTokenServiceIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService("secret", time.Hour, nil)

	session, err := svc.Issue(ctx, backend.Identity{ID: "u1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if session.UserID != "u1" || session.ID == "" || session.Token == "" {
		t.Fatalf("unexpected session %+v", session)
	}

	claims, err := svc.Validate(ctx, session.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.ID != session.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenServiceRevoke(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService("secret", time.Hour, NewMemorySessionStore())

	first, _ := svc.Issue(ctx, backend.Identity{ID: "u1"})
	second, _ := svc.Issue(ctx, backend.Identity{ID: "u1"})
	other, _ := svc.Issue(ctx, backend.Identity{ID: "u2"})

	if err := svc.Revoke(ctx, first.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Validate(ctx, first.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if _, err := svc.Validate(ctx, second.Token); err != nil {
		t.Fatalf("other session should survive: %v", err)
	}

	if err := svc.RevokeAll(ctx, second.Token); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, err := svc.Validate(ctx, second.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	if _, err := svc.Validate(ctx, other.Token); err != nil {
		t.Fatalf("sessions of other users must survive: %v", err)
	}
}

func TestTokenServiceRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService("secret", time.Hour, nil)

	tests := []struct {
		name  string
		token func() string
		want  error
	}{
		{"blank", func() string { return " " }, ErrTokenInvalid},
		{"garbage", func() string { return "not-a-jwt" }, ErrTokenInvalid},
		{"wrong secret", func() string {
			s, _ := NewTokenService("other", time.Hour, nil).Issue(ctx, backend.Identity{ID: "u1"})
			return s.Token
		}, ErrTokenInvalid},
		{"expired", func() string {
			return signClaims(t, "secret", TokenClaims{
				UserID:    "u1",
				TokenType: sessionTokenType,
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        "j1",
					Issuer:    "folio",
					Subject:   "u1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				},
			})
		}, ErrTokenExpired},
		{"wrong type", func() string {
			return signClaims(t, "secret", TokenClaims{
				UserID:    "u1",
				TokenType: "refresh",
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        "j1",
					Issuer:    "folio",
					Subject:   "u1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				},
			})
		}, ErrTokenInvalid},
		{"subject mismatch", func() string {
			return signClaims(t, "secret", TokenClaims{
				UserID:    "u1",
				TokenType: sessionTokenType,
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        "j1",
					Issuer:    "folio",
					Subject:   "u2",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				},
			})
		}, ErrTokenInvalid},
		{"unknown jti", func() string {
			return signClaims(t, "secret", TokenClaims{
				UserID:    "u1",
				TokenType: sessionTokenType,
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        "never-issued",
					Issuer:    "folio",
					Subject:   "u1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				},
			})
		}, ErrTokenRevoked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Validate(ctx, tt.token()); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	noSecret := NewTokenService("", time.Hour, nil)
	if _, err := noSecret.Issue(ctx, backend.Identity{ID: "u1"}); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid without secret, got %v", err)
	}
}

func signClaims(t *testing.T, secret string, claims TokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestTokenError(t *testing.T) {
	for _, err := range []error{ErrTokenInvalid, ErrTokenExpired, ErrTokenRevoked} {
		if !backend.IsUnauthorized(tokenError(err)) {
			t.Fatalf("expected %v mapped to unauthorized", err)
		}
	}
	boom := errors.New("redis down")
	if tokenError(boom) != boom {
		t.Fatalf("infrastructure errors must pass through")
	}
	if tokenError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
