package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"folio/internal/service"
)

const sessionKey = "session"

// SessionMiddleware crea un SessionManager por request y, si llega un bearer token, restaura la sesion.
// Con required, un request sin sesion valida se corta con 401. Sin required, un token invalido se ignora.
func SessionMiddleware(logger *zap.Logger, factory service.SessionFactory, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager := factory.New()
		token, ok := bearerToken(c)
		if !ok && required {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}
		if ok {
			if _, err := manager.Resume(c.Request.Context(), token); err != nil {
				switch {
				case service.IsAuthError(err) && required:
					c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
					c.Abort()
					return
				case service.IsAuthError(err):
					logger.Debug("ignoring invalid bearer token", zap.String("path", c.Request.URL.Path))
				default:
					respondError(c, logger, err, "resume session")
					c.Abort()
					return
				}
			}
		}
		c.Set(sessionKey, manager)
		c.Next()
	}
}

// GetSession obtiene el SessionManager del request.
func GetSession(c *gin.Context) (*service.SessionManager, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	manager, ok := val.(*service.SessionManager)
	return manager, ok && manager != nil
}

// currentUserID devuelve la identidad autenticada o responde 401.
func currentUserID(c *gin.Context) (string, bool) {
	manager, ok := GetSession(c)
	if !ok || manager.State() != service.SessionAuthenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return manager.Identity().ID, true
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}
