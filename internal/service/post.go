package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrForbidden         = errors.New("not the owner of this post")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery describes one page of a post listing. Pages are 1-based.
type ListQuery struct {
	Page     int
	Size     int
	AuthorID *int64
	Newest   bool
}

type PostService interface {
	CreatePost(ctx context.Context, authorID int64, title, content string) (*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, q ListQuery) (*models.PostPage, error)
	// Authorize loads the post and checks that callerID owns it.
	Authorize(ctx context.Context, postID, callerID int64) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post, title, content string) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

type postService struct {
	repo   repository.PostRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewPostService(repo repository.PostRepository, logger *zap.Logger) PostService {
	return &postService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID int64, title, content string) (*models.Post, error) {
	now := s.now()
	post := &models.Post{
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		s.logger.Error("Failed to create post", zap.Int64("author_id", authorID), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.repo.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("Failed to get post", zap.Int64("post_id", id), zap.Error(err))
		return nil, err
	}
	return post, nil
}

// ListPosts returns the requested page. Out-of-range page or size values are
// rejected rather than clamped.
func (s *postService) ListPosts(ctx context.Context, q ListQuery) (*models.PostPage, error) {
	if q.Page < 1 || q.Size < 1 || q.Size > MaxPageSize {
		return nil, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPagination, q.Page, q.Size)
	}

	filter := repository.PostFilter{
		AuthorID:   q.AuthorID,
		Descending: q.Newest,
		Limit:      q.Size,
	}

	total, err := s.repo.CountPosts(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count posts", zap.Error(err))
		return nil, err
	}

	page := &models.PostPage{
		Items: []*models.Post{},
		Total: total,
		Page:  q.Page,
		Size:  q.Size,
		Pages: (total + q.Size - 1) / q.Size,
	}
	// Pages past the end are empty; their offset may not even fit in an int.
	if q.Page > page.Pages {
		return page, nil
	}

	filter.Offset = (q.Page - 1) * q.Size
	page.Items, err = s.repo.ListPosts(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list posts", zap.Error(err))
		return nil, err
	}
	return page, nil
}

func (s *postService) Authorize(ctx context.Context, postID, callerID int64) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		s.logger.Warn("Rejected access to post owned by another user",
			zap.Int64("post_id", postID),
			zap.Int64("caller_id", callerID),
		)
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, post *models.Post, title, content string) (*models.Post, error) {
	updated := *post
	updated.Title = title
	updated.Content = content
	updated.UpdatedAt = s.now()

	if err := s.repo.UpdatePost(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("Failed to update post", zap.Int64("post_id", post.ID), zap.Error(err))
		return nil, err
	}
	return &updated, nil
}

func (s *postService) DeletePost(ctx context.Context, id int64) error {
	if err := s.repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		s.logger.Error("Failed to delete post", zap.Int64("post_id", id), zap.Error(err))
		return err
	}
	return nil
}
