package pgstore

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folio/internal/backend"
)

// Files guarda archivos en la tabla files y los expone bajo baseURL/files/{id}.
type Files struct {
	pool    *pgxpool.Pool
	baseURL string
}

func NewFiles(pool *pgxpool.Pool, baseURL string) *Files {
	return &Files{pool: pool, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *Files) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	const query = `
		INSERT INTO files (id, name, content_type, size, data, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	if _, err := f.pool.Exec(ctx, query, id, name, contentType, int64(len(data)), data); err != nil {
		return "", err
	}
	return id, nil
}

func (f *Files) URL(id string) string {
	return fileURL(f.baseURL, id)
}

func (f *Files) Open(ctx context.Context, id string) (backend.Object, error) {
	const query = `
		SELECT id, name, content_type, size, data, created_at
		FROM files
		WHERE id = $1
	`
	var obj backend.Object
	err := f.pool.QueryRow(ctx, query, id).Scan(
		&obj.ID,
		&obj.Name,
		&obj.ContentType,
		&obj.Size,
		&obj.Data,
		&obj.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return backend.Object{}, backend.NotFound("file", id)
	}
	return obj, err
}

func (f *Files) Delete(ctx context.Context, id string) error {
	tag, err := f.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return backend.NotFound("file", id)
	}
	return nil
}

func fileURL(base, id string) string {
	return base + "/files/" + id
}
