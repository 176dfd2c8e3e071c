package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/domain"
)

var (
	ErrNoValidFields      = errors.New("no valid fields remain")
	ErrMandatoryAttribute = errors.New("mandatory attribute rejected by backend")
)

// DefaultMandatoryFields son los atributos de identidad que nunca se descartan.
var DefaultMandatoryFields = []string{domain.AttrName, domain.AttrEmail, domain.AttrUserID}

// SchemaWriter escribe documentos tolerando que el backend no conozca algunos atributos.
// Cada atributo rechazado se recuerda por coleccion y se omite en las escrituras siguientes.
type SchemaWriter struct {
	logger      *zap.Logger
	docs        backend.Documents
	mandatory   map[string]struct{}
	mu          sync.Mutex
	unsupported map[string]map[string]struct{}
}

func NewSchemaWriter(logger *zap.Logger, docs backend.Documents, mandatory ...string) *SchemaWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(mandatory) == 0 {
		mandatory = DefaultMandatoryFields
	}
	set := make(map[string]struct{}, len(mandatory))
	for _, f := range mandatory {
		set[f] = struct{}{}
	}
	return &SchemaWriter{
		logger:      logger,
		docs:        docs,
		mandatory:   set,
		unsupported: make(map[string]map[string]struct{}),
	}
}

// Create crea el documento descartando atributos desconocidos hasta que el backend lo acepte.
func (w *SchemaWriter) Create(ctx context.Context, collection, id string, payload backend.Record) (backend.Record, error) {
	return w.write(ctx, collection, id, payload, w.docs.Create)
}

// Update actualiza el documento con la misma politica que Create.
func (w *SchemaWriter) Update(ctx context.Context, collection, id string, payload backend.Record) (backend.Record, error) {
	return w.write(ctx, collection, id, payload, w.docs.Update)
}

// Unsupported devuelve, ordenados, los atributos que el backend rechazo para la coleccion.
func (w *SchemaWriter) Unsupported(collection string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.unsupported[collection]))
	for f := range w.unsupported[collection] {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

type writeFunc func(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error)

func (w *SchemaWriter) write(ctx context.Context, collection, id string, payload backend.Record, fn writeFunc) (backend.Record, error) {
	if w.docs == nil {
		return nil, ErrNotConfigured
	}
	remaining := w.strip(collection, payload)

	// Cada intento fallido quita un atributo del payload, asi que hay como mucho len(payload) intentos.
	for {
		if len(remaining) == 0 {
			return nil, fmt.Errorf("%s %s: %w", collection, id, ErrNoValidFields)
		}
		rec, err := fn(ctx, collection, id, remaining)
		if err == nil {
			return rec, nil
		}
		field, ok := backend.UnknownAttribute(err)
		if !ok {
			return nil, err
		}
		if _, isMandatory := w.mandatory[field]; isMandatory {
			w.logger.Error("mandatory attribute rejected",
				zap.String("collection", collection),
				zap.String("field", field),
			)
			return nil, fmt.Errorf("%s.%s: %w: %w", collection, field, ErrMandatoryAttribute, err)
		}
		if _, present := remaining[field]; !present {
			return nil, err
		}
		w.logger.Warn("dropping attribute unknown to backend",
			zap.String("collection", collection),
			zap.String("field", field),
		)
		w.remember(collection, field)
		remaining = remaining.Clone()
		delete(remaining, field)
	}
}

func (w *SchemaWriter) strip(collection string, payload backend.Record) backend.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	known := w.unsupported[collection]
	out := make(backend.Record, len(payload))
	for k, v := range payload {
		if _, skip := known[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}

func (w *SchemaWriter) remember(collection, field string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	set, ok := w.unsupported[collection]
	if !ok {
		set = make(map[string]struct{})
		w.unsupported[collection] = set
	}
	set[field] = struct{}{}
}
