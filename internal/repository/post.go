package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"blogapi/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PostFilter narrows and orders a post listing. A zero Limit means no limit.
type PostFilter struct {
	AuthorID   *int64
	Descending bool
	Offset     int
	Limit      int
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	CountPosts(ctx context.Context, filter PostFilter) (int, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int64) error
}

type postRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostRepository(db *sqlx.DB, logger *zap.Logger) PostRepository {
	return &postRepository{db: db, logger: logger}
}

const postColumns = `id, title, content, author_id, created_at, updated_at`

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	query := r.db.Rebind(`INSERT INTO posts (title, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, post.Title, post.Content, post.AuthorID, post.CreatedAt, post.UpdatedAt).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	query := r.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ?`)
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func whereClause(filter PostFilter) (string, []interface{}) {
	if filter.AuthorID == nil {
		return "", nil
	}
	return ` WHERE author_id = ?`, []interface{}{*filter.AuthorID}
}

// ListPosts returns one window of posts. Rows are always ordered by an
// explicit key so consecutive pages neither overlap nor skip rows.
func (r *postRepository) ListPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + postColumns + ` FROM posts`)

	where, args := whereClause(filter)
	sb.WriteString(where)

	if filter.Descending {
		sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	} else {
		sb.WriteString(` ORDER BY id ASC`)
	}

	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, filter.Limit, filter.Offset)
	}

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, r.db.Rebind(sb.String()), args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) CountPosts(ctx context.Context, filter PostFilter) (int, error) {
	where, args := whereClause(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM posts`+where), args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (r *postRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	query := r.db.Rebind(`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, post.Title, post.Content, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) DeletePost(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
