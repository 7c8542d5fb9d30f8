package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"blogapi/internal/models"
	"blogapi/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostOwnerMiddleware only lets the author of the post named by the :id path
// parameter through. It must run after AuthMiddleware. The loaded post is
// available to the handler via CurrentPost.
func PostOwnerMiddleware(postService service.PostService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid post id"})
			return
		}

		post, err := postService.Authorize(c.Request.Context(), postID, CurrentUser(c).ID)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrPostNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Post not found"})
			return
		case errors.Is(err, service.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Not enough permissions"})
			return
		default:
			logger.Error("Failed to authorize post access", zap.Int64("post_id", postID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}

		c.Set(postKey, post)
		c.Next()
	}
}

// CurrentPost returns the post stored by PostOwnerMiddleware.
func CurrentPost(c *gin.Context) *models.Post {
	post, _ := c.MustGet(postKey).(*models.Post)
	return post
}
