package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/google/uuid"
)

// Files implementa backend.Files contra un bucket de almacenamiento.
type Files struct {
	client *Client
}

func NewFiles(client *Client) *Files {
	return &Files{client: client}
}

func (f *Files) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	id := uuid.NewString()
	if err := w.WriteField("fileId", id); err != nil {
		return "", err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req := request{
		method: http.MethodPost,
		path:   f.client.filesPath(),
		body:   &body,
		ctype:  w.FormDataContentType(),
	}
	var resp struct {
		ID string `json:"$id"`
	}
	if err := f.client.do(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		resp.ID = id
	}
	return resp.ID, nil
}

// URL devuelve la URL publica de vista del archivo.
func (f *Files) URL(id string) string {
	q := url.Values{}
	q.Set("project", f.client.projectID)
	return f.client.endpoint + f.client.filesPath() + "/" + url.PathEscape(id) + "/view?" + q.Encode()
}

func (f *Files) Delete(ctx context.Context, id string) error {
	req := request{method: http.MethodDelete, path: f.client.filesPath() + "/" + url.PathEscape(id)}
	return f.client.do(ctx, req, nil)
}
