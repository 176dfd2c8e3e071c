package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"folio/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Projects *ProjectHandler
	Media    *MediaHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, sessions service.SessionFactory, h Handlers) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	optional := SessionMiddleware(logger, sessions, false)
	required := SessionMiddleware(logger, sessions, true)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/register", optional, h.Auth.Register)
	auth.POST("/login", optional, h.Auth.Login)
	auth.POST("/logout", required, h.Auth.Logout)
	auth.POST("/logout/all", required, h.Auth.LogoutAll)

	me := r.Group("/me", required)
	me.GET("", h.Profile.GetMe)
	me.PATCH("", h.Profile.UpdateMe)
	me.GET("/projects", h.Projects.ListMine)
	me.POST("/projects", h.Projects.Create)
	me.PUT("/projects/order", h.Projects.Reorder)
	me.PATCH("/projects/:id", h.Projects.Update)
	me.DELETE("/projects/:id", h.Projects.Delete)

	r.GET("/gallery", h.Projects.Gallery)
	r.GET("/projects/:id", optional, h.Projects.Get)
	r.GET("/u/:id", h.Projects.Portfolio)

	r.POST("/files", required, h.Media.Upload)
	r.GET("/files/:id", h.Media.Serve)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fija Content-Type: application/json por defecto; los handlers de archivos lo reemplazan.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
