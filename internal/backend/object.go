package backend

import (
	"context"
	"time"
)

// Object es un archivo almacenado junto con su contenido.
type Object struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// ObjectOpener lo implementan los almacenes que sirven sus propios archivos.
type ObjectOpener interface {
	Open(ctx context.Context, id string) (Object, error)
}
