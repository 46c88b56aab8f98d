package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userapi/internal/models"
	"userapi/internal/service"
)

const currentUserKey = "current_user"

const (
	msgNotAuthenticated   = "Not authenticated"
	msgInvalidCredentials = "Could not validate credentials"
)

// AuthMiddleware resolves the bearer token to the current account and stores
// it in the gin context. Requests without a valid token are rejected with 401.
func AuthMiddleware(auth service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, msgNotAuthenticated)
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				logger.Debug("Rejected bearer token", zap.Error(err))
				unauthorized(c, msgInvalidCredentials)
				return
			}
			logger.Error("Failed to resolve current user", zap.Error(err))
			sentry.CaptureException(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account stored by AuthMiddleware, or nil when the
// route is not protected.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
