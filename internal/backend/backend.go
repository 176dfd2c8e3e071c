package backend

import (
	"context"
	"io"
	"time"
)

// Atributos de sistema presentes en cada documento devuelto por el backend.
const (
	AttrID        = "$id"
	AttrCreatedAt = "$createdAt"
	AttrUpdatedAt = "$updatedAt"
)

// Record es un documento opaco tal como lo devuelve el backend, antes del mapeo.
type Record map[string]any

// Clone devuelve una copia superficial del documento.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filter es un filtro de igualdad sobre un atributo.
type Filter struct {
	Field string
	Value any
}

type Sort struct {
	Field string
	Desc  bool
}

// Query agrupa filtros y ordenamientos para List.
type Query struct {
	Filters []Filter
	Sorts   []Sort
	Limit   int
}

// Documents define las operaciones sobre colecciones de documentos.
type Documents interface {
	Create(ctx context.Context, collection, id string, data Record) (Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	Update(ctx context.Context, collection, id string, data Record) (Record, error)
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, query Query) ([]Record, error)
}

// Files define el almacenamiento de objetos binarios.
type Files interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	URL(id string) string
	Delete(ctx context.Context, id string) error
}

// Identity es la identidad de autenticacion asociada a una sesion.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Accounts define el servicio de identidad. Las operaciones de sesion reciben el token de la sesion actual.
type Accounts interface {
	Create(ctx context.Context, id, email, password, name string) (Identity, error)
	CreateSession(ctx context.Context, email, password string) (Session, error)
	Current(ctx context.Context, token string) (Identity, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteSessions(ctx context.Context, token string) error
	UpdateName(ctx context.Context, token, name string) (Identity, error)
}
