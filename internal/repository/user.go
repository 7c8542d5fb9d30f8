package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blogapi/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type userRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

// CreateUser inserts the user and fills in its id. Uniqueness of email and
// username is left to the database constraints.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`INSERT INTO users (email, username, hashed_password, is_active) VALUES (?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, user.Email, user.Username, user.HashedPassword, user.IsActive).Scan(&user.ID)
	if err != nil {
		switch uniqueViolation(err) {
		case "":
			return fmt.Errorf("insert user: %w", err)
		case "email":
			return ErrDuplicateEmail
		case "username":
			return ErrDuplicateUsername
		default:
			r.logger.Warn("Unique violation on unexpected column", zap.Error(err))
			return fmt.Errorf("insert user: %w", err)
		}
	}
	return nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, email, username, hashed_password, is_active FROM users WHERE username = ?`)
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, email, username, hashed_password, is_active FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
