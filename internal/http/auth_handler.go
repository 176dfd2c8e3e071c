package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"folio/internal/service"
)

// AuthHandler expone el alta, el inicio y el cierre de sesion.
type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger}
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	manager, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not available"})
		return
	}

	user, err := manager.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err, "register")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": manager.Token()})
}

// Login maneja POST /auth/login. Con un bearer de la misma identidad devuelve la sesion vigente.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	manager, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not available"})
		return
	}

	user, err := manager.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": manager.Token()})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.logout(c, false)
}

// LogoutAll maneja POST /auth/logout/all.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	h.logout(c, true)
}

func (h *AuthHandler) logout(c *gin.Context, all bool) {
	manager, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var err error
	if all {
		err = manager.LogoutAll(c.Request.Context())
	} else {
		err = manager.Logout(c.Request.Context())
	}
	if err != nil {
		respondError(c, h.logger, err, "logout")
		return
	}
	c.Status(http.StatusNoContent)
}
