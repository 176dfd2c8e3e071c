package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"folio/internal/domain"
	"folio/internal/service"
)

// ProfileHandler expone el perfil del usuario autenticado.
type ProfileHandler struct {
	logger *zap.Logger
	media  *service.MediaService
}

func NewProfileHandler(logger *zap.Logger, media *service.MediaService) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{logger: logger, media: media}
}

type profileView struct {
	domain.User
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (h *ProfileHandler) view(u domain.User) profileView {
	v := profileView{User: u}
	if h.media != nil {
		v.AvatarURL = h.media.URL(u.Avatar)
	}
	return v
}

// GetMe maneja GET /me. Con ?refresh=true vuelve a leer el perfil del backend.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	manager, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if c.Query("refresh") == "true" {
		user, err := manager.RefreshProfile(c.Request.Context())
		if err != nil {
			respondError(c, h.logger, err, "refresh profile")
			return
		}
		c.JSON(http.StatusOK, h.view(user))
		return
	}
	user, ok := manager.Profile()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, h.view(user))
}

// UpdateMe maneja PATCH /me.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var patch domain.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid profile patch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	manager, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, err := manager.UpdateProfile(c.Request.Context(), patch)
	if err != nil {
		respondError(c, h.logger, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, h.view(user))
}
