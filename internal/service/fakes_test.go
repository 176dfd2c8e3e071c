package service

import (
	"context"
	"sync"

	"folio/internal/backend"
)

// countingDocuments cuenta las llamadas de escritura y puede devolver un error fijo.
type countingDocuments struct {
	backend.Documents
	mu      sync.Mutex
	creates int
	updates int
	deletes int
	lists   int
	lastLst backend.Query
	listErr error
	payload []backend.Record
}

func (c *countingDocuments) Create(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	c.mu.Lock()
	c.creates++
	c.payload = append(c.payload, data.Clone())
	c.mu.Unlock()
	return c.Documents.Create(ctx, collection, id, data)
}

func (c *countingDocuments) Update(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	c.mu.Lock()
	c.updates++
	c.payload = append(c.payload, data.Clone())
	c.mu.Unlock()
	return c.Documents.Update(ctx, collection, id, data)
}

func (c *countingDocuments) Delete(ctx context.Context, collection, id string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.Documents.Delete(ctx, collection, id)
}

func (c *countingDocuments) List(ctx context.Context, collection string, q backend.Query) ([]backend.Record, error) {
	c.mu.Lock()
	c.lists++
	c.lastLst = q
	err := c.listErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Documents.List(ctx, collection, q)
}

// accountCall registra el orden de las llamadas al servicio de identidad.
type countingAccounts struct {
	backend.Accounts
	mu    sync.Mutex
	calls []string
}

func (c *countingAccounts) record(name string) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.mu.Unlock()
}

func (c *countingAccounts) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *countingAccounts) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

func (c *countingAccounts) Create(ctx context.Context, id, email, password, name string) (backend.Identity, error) {
	c.record("create")
	return c.Accounts.Create(ctx, id, email, password, name)
}

func (c *countingAccounts) CreateSession(ctx context.Context, email, password string) (backend.Session, error) {
	c.record("create_session")
	return c.Accounts.CreateSession(ctx, email, password)
}

func (c *countingAccounts) Current(ctx context.Context, token string) (backend.Identity, error) {
	c.record("current")
	return c.Accounts.Current(ctx, token)
}

func (c *countingAccounts) DeleteSession(ctx context.Context, token string) error {
	c.record("delete_session")
	return c.Accounts.DeleteSession(ctx, token)
}

func (c *countingAccounts) DeleteSessions(ctx context.Context, token string) error {
	c.record("delete_sessions")
	return c.Accounts.DeleteSessions(ctx, token)
}

func (c *countingAccounts) UpdateName(ctx context.Context, token, name string) (backend.Identity, error) {
	c.record("update_name")
	return c.Accounts.UpdateName(ctx, token, name)
}

// messageOnlyDocuments devuelve fallas sin campo estructurado, como un backend antiguo.
type messageOnlyDocuments struct {
	backend.Documents
}

func (m messageOnlyDocuments) Create(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	rec, err := m.Documents.Create(ctx, collection, id, data)
	return rec, stripField(err)
}

func (m messageOnlyDocuments) Update(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	rec, err := m.Documents.Update(ctx, collection, id, data)
	return rec, stripField(err)
}

func stripField(err error) error {
	be, ok := err.(*backend.Error)
	if !ok {
		return err
	}
	copied := *be
	copied.Field = ""
	return &copied
}
