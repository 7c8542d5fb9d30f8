package middleware

import (
	"errors"
	"net/http"
	"strings"

	"blogapi/internal/models"
	"blogapi/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userKey = "user"
	postKey = "post"
)

// AuthMiddleware creates a Gin middleware for bearer token authentication.
// The resolved user is stored on the context; see CurrentUser.
func AuthMiddleware(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			abortUnauthorized(c)
			return
		}

		user, err := authService.ResolveToken(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) {
				logger.Debug("Rejected bearer token", zap.Error(err))
				abortUnauthorized(c)
				return
			}
			logger.Error("Failed to resolve bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet(userKey).(*models.User)
	return user
}
