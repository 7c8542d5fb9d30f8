package handler

import (
	"net/http"
	"strconv"

	"blogapi/internal/middleware"
	"blogapi/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type postHandler struct {
	postService service.PostService
	logger      *zap.Logger
}

func NewPostHandler(postService service.PostService, logger *zap.Logger) PostHandler {
	return &postHandler{postService: postService, logger: logger}
}

// PostRequest fields must be present but may be empty.
type PostRequest struct {
	Title   *string `json:"title" binding:"required,max=255"`
	Content *string `json:"content" binding:"required"`
}

// ListParams are the query parameters of the listing endpoints. The size
// default and bound mirror service.DefaultPageSize and service.MaxPageSize.
type ListParams struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Size     int    `form:"size,default=10" binding:"min=1,max=100"`
	AuthorID *int64 `form:"author_id"`
	Order    string `form:"order,default=asc" binding:"oneof=asc desc"`
}

func (p ListParams) query() service.ListQuery {
	return service.ListQuery{
		Page:     p.Page,
		Size:     p.Size,
		AuthorID: p.AuthorID,
		Newest:   p.Order == "desc",
	}
}

func (h *postHandler) Create(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), middleware.CurrentUser(c).ID, *req.Title, *req.Content)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *postHandler) List(c *gin.Context) {
	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeValidationError(c, err)
		return
	}
	h.list(c, params.query())
}

// ListMine lists the caller's own posts; author_id is ignored.
func (h *postHandler) ListMine(c *gin.Context) {
	var params ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeValidationError(c, err)
		return
	}
	q := params.query()
	callerID := middleware.CurrentUser(c).ID
	q.AuthorID = &callerID
	h.list(c, q)
}

func (h *postHandler) list(c *gin.Context, q service.ListQuery) {
	page, err := h.postService.ListPosts(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *postHandler) Get(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid post id"})
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *postHandler) Update(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), middleware.CurrentPost(c), *req.Title, *req.Content)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *postHandler) Delete(c *gin.Context) {
	post := middleware.CurrentPost(c)
	if err := h.postService.DeletePost(c.Request.Context(), post.ID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Post deleted", zap.Int64("post_id", post.ID), zap.Int64("author_id", post.AuthorID))
	c.Status(http.StatusNoContent)
}
