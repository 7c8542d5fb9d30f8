package service

import (
	"context"
	"testing"
	"time"

	"blogapi/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	db     *sqlx.DB
	users  repository.UserRepository
	tokens TokenService
	auth   AuthService
	posts  PostService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := repository.NewDB("sqlite://:memory:", logger)
	require.NoError(t, err)
	require.NoError(t, repository.MigrateDB(db, logger))
	t.Cleanup(func() { db.Close() })

	tokens, err := NewTokenService("test-secret-key", "HS256", 30*time.Minute)
	require.NoError(t, err)

	users := repository.NewUserRepository(db, logger)
	auth, err := NewAuthService(users, tokens, logger)
	require.NoError(t, err)

	return &testEnv{
		db:     db,
		users:  users,
		tokens: tokens,
		auth:   auth,
		posts:  NewPostService(repository.NewPostRepository(db, logger), logger),
	}
}

func getTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
