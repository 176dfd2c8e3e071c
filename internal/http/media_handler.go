package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/service"
)

// MediaHandler sube archivos y, si el almacen lo permite, los sirve.
type MediaHandler struct {
	logger *zap.Logger
	media  *service.MediaService
	opener backend.ObjectOpener
}

// NewMediaHandler recibe opener nil cuando los archivos se sirven desde el backend remoto.
func NewMediaHandler(logger *zap.Logger, media *service.MediaService, opener backend.ObjectOpener) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{logger: logger, media: media, opener: opener}
}

// Upload maneja POST /files (multipart, campo "file").
func (h *MediaHandler) Upload(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.logger.Warn("invalid upload request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err, "read upload")
		return
	}
	defer f.Close()

	ref, err := h.media.Upload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), f)
	if err != nil {
		respondError(c, h.logger, err, "upload file")
		return
	}
	c.JSON(http.StatusCreated, ref)
}

// Serve maneja GET /files/:id.
func (h *MediaHandler) Serve(c *gin.Context) {
	if h.opener == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	obj, err := h.opener.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		if backend.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		respondError(c, h.logger, err, "open file")
		return
	}
	c.Header("Content-Type", obj.ContentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	if obj.Name != "" {
		c.Header("Content-Disposition", "inline; filename="+strconv.Quote(obj.Name))
	}
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
