package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"folio/internal/backend"
)

const sessionHeader = "X-Appwrite-Session"

// Config apunta el cliente a un proyecto del backend gestionado.
type Config struct {
	Endpoint   string
	ProjectID  string
	APIKey     string
	DatabaseID string
	BucketID   string
	Timeout    time.Duration
}

// Client habla con la API REST del backend gestionado. Documents, Files y Accounts lo comparten.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
	bucketID   string
	http       *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
		bucketID:   cfg.BucketID,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type request struct {
	method  string
	path    string
	query   url.Values
	session string
	body    io.Reader
	ctype   string
}

func (c *Client) jsonRequest(method, path, session string, payload any) (request, error) {
	r := request{method: method, path: path, session: session}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return request{}, fmt.Errorf("marshal request: %w", err)
		}
		r.body = bytes.NewReader(raw)
		r.ctype = "application/json"
	}
	return r, nil
}

// do envia la peticion y decodifica la respuesta en out (si no es nil).
// Las respuestas >= 400 se devuelven como *backend.Error.
func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.endpoint + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", c.projectID)
	if r.session != "" {
		req.Header.Set(sessionHeader, r.session)
	} else if c.apiKey != "" {
		req.Header.Set("X-Appwrite-Key", c.apiKey)
	}
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("backend error response",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)),
		)
		return decodeError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return &backend.Error{Status: status, Message: strings.TrimSpace(string(truncate(body, 512)))}
	}
	if payload.Code == 0 {
		payload.Code = status
	}
	be := &backend.Error{Status: payload.Code, Type: payload.Type, Message: payload.Message}
	if field, ok := backend.UnknownAttribute(be); ok {
		be.Field = field
	}
	return be
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

func (c *Client) documentsPath(collection string) string {
	return "/databases/" + url.PathEscape(c.databaseID) + "/collections/" + url.PathEscape(collection) + "/documents"
}

func (c *Client) filesPath() string {
	return "/storage/buckets/" + url.PathEscape(c.bucketID) + "/files"
}
