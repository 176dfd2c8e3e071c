package memstore

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"folio/internal/backend"
)

// Files implementa backend.Files en memoria.
type Files struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]backend.Object
}

func NewFiles(baseURL string) *Files {
	return &Files{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]backend.Object),
	}
}

func (f *Files) Put(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = backend.Object{
		ID:          id,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	return id, nil
}

func (f *Files) URL(id string) string {
	return f.baseURL + "/files/" + id
}

func (f *Files) Open(_ context.Context, id string) (backend.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[id]
	if !ok {
		return backend.Object{}, backend.NotFound("file", id)
	}
	return obj, nil
}

func (f *Files) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[id]; !ok {
		return backend.NotFound("file", id)
	}
	delete(f.objects, id)
	return nil
}
