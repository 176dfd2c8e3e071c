package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"go.uber.org/zap"

	"folio/internal/backend"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrEmptyFile        = errors.New("empty file")
)

const defaultMaxUploadBytes = 10 << 20

// MediaRef identifica un archivo subido y la URL para verlo.
type MediaRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// MediaService sube, resuelve y borra los archivos de los proyectos.
type MediaService struct {
	logger   *zap.Logger
	files    backend.Files
	maxBytes int64
}

func NewMediaService(logger *zap.Logger, files backend.Files, maxBytes int64) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &MediaService{logger: logger, files: files, maxBytes: maxBytes}
}

func (s *MediaService) Upload(ctx context.Context, name, contentType string, r io.Reader) (MediaRef, error) {
	if s.files == nil {
		return MediaRef{}, ErrNotConfigured
	}
	contentType = normalizeContentType(name, contentType)
	if !allowedContentType(contentType) {
		return MediaRef{}, fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return MediaRef{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return MediaRef{}, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return MediaRef{}, ErrFileTooLarge
	}
	id, err := s.files.Put(ctx, path.Base(name), contentType, bytes.NewReader(data))
	if err != nil {
		return MediaRef{}, fmt.Errorf("store file: %w", err)
	}
	return MediaRef{ID: id, URL: s.files.URL(id)}, nil
}

// URL resuelve una referencia: las URLs absolutas se devuelven tal cual, el resto se trata como id.
func (s *MediaService) URL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || isExternalRef(ref) || s.files == nil {
		return ref
	}
	return s.files.URL(ref)
}

func (s *MediaService) URLs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, s.URL(r))
	}
	return out
}

func (s *MediaService) Delete(ctx context.Context, id string) error {
	if s.files == nil {
		return ErrNotConfigured
	}
	if err := s.files.Delete(ctx, id); err != nil {
		if backend.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteRefs borra los archivos almacenados referenciados; ignora URLs externas y no devuelve errores.
func (s *MediaService) DeleteRefs(ctx context.Context, refs []string) {
	if s == nil || s.files == nil {
		return
	}
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" || isExternalRef(ref) {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		if err := s.files.Delete(ctx, ref); err != nil && !backend.IsNotFound(err) {
			s.logger.Warn("delete media failed", zap.String("file_id", ref), zap.Error(err))
		}
	}
}

func isExternalRef(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(ref, "/")
}

func normalizeContentType(name, contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(name))); byExt != "" {
			contentType = byExt
		}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mediaType
}

func allowedContentType(ct string) bool {
	switch {
	case strings.HasPrefix(ct, "image/"), strings.HasPrefix(ct, "video/"):
		return true
	case ct == "application/pdf", ct == "text/plain":
		return true
	}
	return false
}
