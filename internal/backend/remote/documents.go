package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"folio/internal/backend"
)

// Documents implementa backend.Documents contra la API de bases de datos.
type Documents struct {
	client *Client
}

func NewDocuments(client *Client) *Documents {
	return &Documents{client: client}
}

func (d *Documents) Create(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	if id == "" {
		id = "unique()"
	}
	r, err := d.client.jsonRequest(http.MethodPost, d.client.documentsPath(collection), "", map[string]any{
		"documentId": id,
		"data":       data,
	})
	if err != nil {
		return nil, err
	}
	var rec backend.Record
	if err := d.client.do(ctx, r, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *Documents) Get(ctx context.Context, collection, id string) (backend.Record, error) {
	r := request{method: http.MethodGet, path: d.client.documentsPath(collection) + "/" + url.PathEscape(id)}
	var rec backend.Record
	if err := d.client.do(ctx, r, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *Documents) Update(ctx context.Context, collection, id string, data backend.Record) (backend.Record, error) {
	r, err := d.client.jsonRequest(http.MethodPatch, d.client.documentsPath(collection)+"/"+url.PathEscape(id), "", map[string]any{
		"data": data,
	})
	if err != nil {
		return nil, err
	}
	var rec backend.Record
	if err := d.client.do(ctx, r, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *Documents) Delete(ctx context.Context, collection, id string) error {
	r := request{method: http.MethodDelete, path: d.client.documentsPath(collection) + "/" + url.PathEscape(id)}
	return d.client.do(ctx, r, nil)
}

func (d *Documents) List(ctx context.Context, collection string, q backend.Query) ([]backend.Record, error) {
	queries, err := encodeQueries(q)
	if err != nil {
		return nil, err
	}
	r := request{method: http.MethodGet, path: d.client.documentsPath(collection), query: queries}
	var resp struct {
		Total     int              `json:"total"`
		Documents []backend.Record `json:"documents"`
	}
	if err := d.client.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	if resp.Documents == nil {
		resp.Documents = []backend.Record{}
	}
	return resp.Documents, nil
}

type queryExpr struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// encodeQueries traduce la Query a parametros queries[] en formato JSON.
func encodeQueries(q backend.Query) (url.Values, error) {
	exprs := make([]queryExpr, 0, len(q.Filters)+len(q.Sorts)+1)
	for _, f := range q.Filters {
		exprs = append(exprs, queryExpr{Method: "equal", Attribute: f.Field, Values: []any{f.Value}})
	}
	for _, s := range q.Sorts {
		method := "orderAsc"
		if s.Desc {
			method = "orderDesc"
		}
		exprs = append(exprs, queryExpr{Method: method, Attribute: s.Field})
	}
	if q.Limit > 0 {
		exprs = append(exprs, queryExpr{Method: "limit", Values: []any{q.Limit}})
	}

	values := url.Values{}
	for _, e := range exprs {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode query %s: %w", e.Method, err)
		}
		values.Add("queries[]", string(raw))
	}
	return values, nil
}
