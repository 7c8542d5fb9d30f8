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
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // Returns token, expiration time, and error
	ResolveToken(ctx context.Context, tokenString string) (*models.User, error)
}

type authService struct {
	repo   repository.UserRepository
	tokens TokenService
	logger *zap.Logger

	// dummyHash is verified against when the user does not exist so both
	// failure paths cost one Argon2 evaluation.
	dummyHash string
}

func NewAuthService(repo repository.UserRepository, tokens TokenService, logger *zap.Logger) (AuthService, error) {
	dummyHash, err := HashPassword("dummy-password")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &authService{
		repo:      repo,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

func (s *authService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	if !ValidatePassword(password) {
		return nil, ErrInvalidPassword
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:          email,
		Username:       username,
		HashedPassword: passwordHash,
		IsActive:       true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailExists
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameExists
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Failed to get user by username", zap.Error(err))
			return nil, fmt.Errorf("failed to retrieve user: %w", err)
		}
		_, _ = VerifyPassword(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(user.HashedPassword, password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", time.Time{}, err
	}

	tokenString, expirationTime, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in successfully.", zap.String("username", user.Username))
	return tokenString, expirationTime, nil
}

// ResolveToken verifies a bearer token and loads the active user it names.
func (s *authService) ResolveToken(ctx context.Context, tokenString string) (*models.User, error) {
	username, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}
