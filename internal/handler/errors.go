package handler

import (
	"errors"
	"net/http"

	"blogapi/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as a generic 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		status int
		detail string
	)
	switch {
	case errors.Is(err, service.ErrEmailExists):
		status, detail = http.StatusBadRequest, "Email already registered"
	case errors.Is(err, service.ErrUsernameExists):
		status, detail = http.StatusBadRequest, "Username already taken"
	case errors.Is(err, service.ErrInvalidPassword):
		status, detail = http.StatusBadRequest, "Invalid password"
	case errors.Is(err, service.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		status, detail = http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, service.ErrPostNotFound):
		status, detail = http.StatusNotFound, "Post not found"
	case errors.Is(err, service.ErrForbidden):
		status, detail = http.StatusForbidden, "Not enough permissions"
	case errors.Is(err, service.ErrInvalidPagination):
		status, detail = http.StatusUnprocessableEntity, err.Error()
	default:
		logger.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		status, detail = http.StatusInternalServerError, "Internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func writeValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}
