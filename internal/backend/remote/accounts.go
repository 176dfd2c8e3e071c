package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"folio/internal/backend"
)

// Accounts implementa backend.Accounts con la API de cuentas. El token de sesion es el secret que devuelve el backend.
type Accounts struct {
	client *Client
}

func NewAccounts(client *Client) *Accounts {
	return &Accounts{client: client}
}

type accountResponse struct {
	ID        string `json:"$id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"$createdAt"`
}

func (r accountResponse) identity() backend.Identity {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return backend.Identity{ID: r.ID, Email: r.Email, Name: r.Name, CreatedAt: created}
}

type sessionResponse struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

func (a *Accounts) Create(ctx context.Context, id, email, password, name string) (backend.Identity, error) {
	if id == "" {
		id = "unique()"
	}
	req, err := a.client.jsonRequest(http.MethodPost, "/account", "", map[string]string{
		"userId":   id,
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": password,
		"name":     strings.TrimSpace(name),
	})
	if err != nil {
		return backend.Identity{}, err
	}
	var resp accountResponse
	if err := a.client.do(ctx, req, &resp); err != nil {
		return backend.Identity{}, err
	}
	return resp.identity(), nil
}

func (a *Accounts) CreateSession(ctx context.Context, email, password string) (backend.Session, error) {
	req, err := a.client.jsonRequest(http.MethodPost, "/account/sessions/email", "", map[string]string{
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": password,
	})
	if err != nil {
		return backend.Session{}, err
	}
	var resp sessionResponse
	if err := a.client.do(ctx, req, &resp); err != nil {
		return backend.Session{}, err
	}
	if resp.Secret == "" {
		return backend.Session{}, &backend.Error{
			Status:  http.StatusBadGateway,
			Message: "session created without secret; an API key with sessions.write scope is required",
		}
	}
	expires, _ := time.Parse(time.RFC3339Nano, resp.Expire)
	return backend.Session{ID: resp.ID, UserID: resp.UserID, Token: resp.Secret, ExpiresAt: expires}, nil
}

func (a *Accounts) Current(ctx context.Context, token string) (backend.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return backend.Identity{}, backend.Unauthorized("missing session")
	}
	var resp accountResponse
	if err := a.client.do(ctx, request{method: http.MethodGet, path: "/account", session: token}, &resp); err != nil {
		return backend.Identity{}, err
	}
	return resp.identity(), nil
}

func (a *Accounts) DeleteSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return backend.Unauthorized("missing session")
	}
	return a.client.do(ctx, request{method: http.MethodDelete, path: "/account/sessions/current", session: token}, nil)
}

func (a *Accounts) DeleteSessions(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return backend.Unauthorized("missing session")
	}
	return a.client.do(ctx, request{method: http.MethodDelete, path: "/account/sessions", session: token}, nil)
}

func (a *Accounts) UpdateName(ctx context.Context, token, name string) (backend.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return backend.Identity{}, backend.Unauthorized("missing session")
	}
	req, err := a.client.jsonRequest(http.MethodPatch, "/account/name", token, map[string]string{
		"name": strings.TrimSpace(name),
	})
	if err != nil {
		return backend.Identity{}, err
	}
	var resp accountResponse
	if err := a.client.do(ctx, req, &resp); err != nil {
		return backend.Identity{}, err
	}
	return resp.identity(), nil
}
