package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"folio/internal/backend"
)

// Documents implementa backend.Documents sobre la tabla documents (jsonb).
// Los atributos aceptados por coleccion se leen de collection_attributes; una coleccion sin filas acepta cualquiera.
type Documents struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewDocuments(pool *pgxpool.Pool, logger *zap.Logger) *Documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Documents{pool: pool, logger: logger}
}

func (d *Documents) Create(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	if err := d.checkWrite(ctx, collection, data); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	const query = `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, now(), now())
		ON CONFLICT (collection, id) DO NOTHING
		RETURNING data, created_at, updated_at
	`
	rec, err := scanDocument(id, d.pool.QueryRow(ctx, query, collection, id, raw))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &backend.Error{
			Status:  http.StatusConflict,
			Type:    backend.TypeDocumentAlreadyExists,
			Message: fmt.Sprintf("Document with the requested ID %q already exists.", id),
		}
	}
	return rec, err
}

func (d *Documents) Get(ctx context.Context, collection, id string) (backend.Record, error) {
	const query = `
		SELECT data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	rec, err := scanDocument(id, d.pool.QueryRow(ctx, query, collection, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backend.NotFound("document", id)
	}
	return rec, err
}

// Update mezcla los campos del payload sobre el documento guardado.
func (d *Documents) Update(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	if err := d.checkWrite(ctx, collection, data); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	const query = `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
		RETURNING data, created_at, updated_at
	`
	rec, err := scanDocument(id, d.pool.QueryRow(ctx, query, collection, id, raw))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backend.NotFound("document", id)
	}
	return rec, err
}

func (d *Documents) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	tag, err := d.pool.Exec(ctx, query, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return backend.NotFound("document", id)
	}
	return nil
}

func (d *Documents) List(ctx context.Context, collection string, q backend.Query) ([]backend.Record, error) {
	query, args, err := buildListQuery(collection, q)
	if err != nil {
		return nil, err
	}
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]backend.Record, 0)
	for rows.Next() {
		var id string
		var raw []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec, err := decodeDocument(id, raw, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DefineAttributes declara atributos aceptados por una coleccion. Es idempotente.
func (d *Documents) DefineAttributes(ctx context.Context, collection string, attrs ...string) error {
	const query = `
		INSERT INTO collection_attributes (collection, attribute)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, a := range attrs {
		if _, err := d.pool.Exec(ctx, query, collection, a); err != nil {
			return fmt.Errorf("define attribute %s.%s: %w", collection, a, err)
		}
	}
	return nil
}

func (d *Documents) checkWrite(ctx context.Context, collection string, data backend.Record) error {
	allowed, err := d.attributes(ctx, collection)
	if err != nil {
		return err
	}
	if field, ok := unknownAttribute(allowed, data); ok {
		d.logger.Debug("write rejected by collection attributes",
			zap.String("collection", collection),
			zap.String("field", field),
		)
		return backend.UnknownAttributeError(field)
	}
	return nil
}

func (d *Documents) attributes(ctx context.Context, collection string) (map[string]struct{}, error) {
	const query = `SELECT attribute FROM collection_attributes WHERE collection = $1`
	rows, err := d.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("load attributes: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var attr string
		if err := rows.Scan(&attr); err != nil {
			return nil, err
		}
		set[attr] = struct{}{}
	}
	return set, rows.Err()
}

// unknownAttribute devuelve el primer campo (en orden alfabetico) que no esta en allowed.
// Un conjunto vacio acepta todo.
func unknownAttribute(allowed map[string]struct{}, data backend.Record) (string, bool) {
	if len(allowed) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := allowed[k]; !ok {
			return k, true
		}
	}
	return "", false
}

func buildListQuery(collection string, q backend.Query) (string, []any, error) {
	var b strings.Builder
	args := []any{collection}
	b.WriteString("SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1")

	for _, f := range q.Filters {
		if col, ok := systemColumn(f.Field); ok {
			args = append(args, f.Value)
			fmt.Fprintf(&b, " AND %s = $%d", col, len(args))
			continue
		}
		raw, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		args = append(args, raw)
		fmt.Fprintf(&b, " AND data @> $%d::jsonb", len(args))
	}

	b.WriteString(" ORDER BY ")
	for _, s := range q.Sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		if col, ok := systemColumn(s.Field); ok {
			fmt.Fprintf(&b, "%s %s, ", col, dir)
			continue
		}
		args = append(args, s.Field)
		fmt.Fprintf(&b, "data->($%d::text) %s NULLS FIRST, ", len(args), dir)
	}
	b.WriteString("id ASC")

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

func systemColumn(field string) (string, bool) {
	switch field {
	case backend.AttrID:
		return "id", true
	case backend.AttrCreatedAt:
		return "created_at", true
	case backend.AttrUpdatedAt:
		return "updated_at", true
	}
	return "", false
}

func scanDocument(id string, row pgx.Row) (backend.Record, error) {
	var raw []byte
	var createdAt, updatedAt time.Time
	if err := row.Scan(&raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return decodeDocument(id, raw, createdAt, updatedAt)
}

func decodeDocument(id string, raw []byte, createdAt, updatedAt time.Time) (backend.Record, error) {
	rec := backend.Record{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
	}
	rec[backend.AttrID] = id
	rec[backend.AttrCreatedAt] = createdAt.UTC().Format(time.RFC3339Nano)
	rec[backend.AttrUpdatedAt] = updatedAt.UTC().Format(time.RFC3339Nano)
	return rec, nil
}
