package memstore

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"folio/internal/backend"
)

type storedDocument struct {
	data      backend.Record
	createdAt time.Time
	updatedAt time.Time
}

// Documents implementa backend.Documents en memoria.
// Las colecciones declaradas con DefineCollection solo aceptan sus atributos; las demas aceptan cualquiera.
type Documents struct {
	mu          sync.Mutex
	collections map[string]map[string]storedDocument
	attributes  map[string]map[string]struct{}
	Now         func() time.Time
}

func NewDocuments() *Documents {
	return &Documents{
		collections: make(map[string]map[string]storedDocument),
		attributes:  make(map[string]map[string]struct{}),
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// DefineCollection fija los atributos aceptados por una coleccion.
func (d *Documents) DefineCollection(collection string, attrs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		set[a] = struct{}{}
	}
	d.attributes[collection] = set
}

// DropAttribute quita un atributo aceptado, simulando una migracion aplicada a medias.
func (d *Documents) DropAttribute(collection, attr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if set, ok := d.attributes[collection]; ok {
		delete(set, attr)
	}
}

func (d *Documents) Create(_ context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAttributes(collection, data); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	docs := d.collection(collection)
	if _, exists := docs[id]; exists {
		return nil, &backend.Error{
			Status:  http.StatusConflict,
			Type:    backend.TypeDocumentAlreadyExists,
			Message: fmt.Sprintf("Document with the requested ID %q already exists.", id),
		}
	}
	now := d.Now()
	doc := storedDocument{data: data.Clone(), createdAt: now, updatedAt: now}
	docs[id] = doc
	return present(id, doc), nil
}

func (d *Documents) Get(_ context.Context, collection, id string) (backend.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.collection(collection)[id]
	if !ok {
		return nil, backend.NotFound("document", id)
	}
	return present(id, doc), nil
}

func (d *Documents) Update(_ context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs := d.collection(collection)
	doc, ok := docs[id]
	if !ok {
		return nil, backend.NotFound("document", id)
	}
	if err := d.checkAttributes(collection, data); err != nil {
		return nil, err
	}
	merged := doc.data.Clone()
	for k, v := range data {
		merged[k] = v
	}
	doc = storedDocument{data: merged, createdAt: doc.createdAt, updatedAt: d.Now()}
	docs[id] = doc
	return present(id, doc), nil
}

func (d *Documents) Delete(_ context.Context, collection, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs := d.collection(collection)
	if _, ok := docs[id]; !ok {
		return backend.NotFound("document", id)
	}
	delete(docs, id)
	return nil
}

func (d *Documents) List(_ context.Context, collection string, query backend.Query) ([]backend.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]backend.Record, 0)
	for id, doc := range d.collection(collection) {
		rec := present(id, doc)
		if matches(rec, query.Filters) {
			out = append(out, rec)
		}
	}
	// Orden base por id para que el resultado no dependa del recorrido del mapa.
	sort.Slice(out, func(i, j int) bool {
		return out[i][backend.AttrID].(string) < out[j][backend.AttrID].(string)
	})
	if len(query.Sorts) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, s := range query.Sorts {
				c := backend.CompareValues(sortValue(out[i], s.Field), sortValue(out[j], s.Field))
				if c == 0 {
					continue
				}
				if s.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (d *Documents) collection(name string) map[string]storedDocument {
	docs, ok := d.collections[name]
	if !ok {
		docs = make(map[string]storedDocument)
		d.collections[name] = docs
	}
	return docs
}

func (d *Documents) checkAttributes(collection string, data backend.Record) error {
	allowed, ok := d.attributes[collection]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := allowed[k]; !ok {
			return backend.UnknownAttributeError(k)
		}
	}
	return nil
}

func present(id string, doc storedDocument) backend.Record {
	rec := doc.data.Clone()
	rec[backend.AttrID] = id
	rec[backend.AttrCreatedAt] = doc.createdAt.Format(time.RFC3339Nano)
	rec[backend.AttrUpdatedAt] = doc.updatedAt.Format(time.RFC3339Nano)
	return rec
}

func matches(rec backend.Record, filters []backend.Filter) bool {
	for _, f := range filters {
		if !backend.EqualValues(rec[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func sortValue(rec backend.Record, field string) any {
	if field == backend.AttrCreatedAt || field == backend.AttrUpdatedAt {
		s, _ := rec[field].(string)
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil
		}
		return t
	}
	return rec[field]
}
