package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"blogapi/internal/config"
	"blogapi/internal/models"
	"blogapi/internal/repository"
	"blogapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Test123!@#"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()

	cfg := config.Default()
	cfg.Database.URL = "sqlite://:memory:"
	cfg.Security.SecretKey = "test-secret-key"

	db, err := repository.NewDB(cfg.Database.URL, logger)
	require.NoError(t, err)
	require.NoError(t, repository.MigrateDB(db, logger))
	t.Cleanup(func() { db.Close() })

	tokens, err := service.NewTokenService(cfg.Security.SecretKey, cfg.Security.Algorithm,
		time.Duration(cfg.Security.AccessTokenExpireMinutes)*time.Minute)
	require.NoError(t, err)
	authService, err := service.NewAuthService(repository.NewUserRepository(db, logger), tokens, logger)
	require.NoError(t, err)
	postService := service.NewPostService(repository.NewPostRepository(db, logger), logger)

	return NewServer(db, cfg, authService, postService, logger)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func register(t *testing.T, s *Server, username string) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    username + "@example.com",
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func login(t *testing.T, s *Server, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, s *Server, username string) string {
	t.Helper()
	register(t, s, username)
	w := login(t, s, username, testPassword)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok := decode[models.Token](t, w)
	require.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func createPost(t *testing.T, s *Server, token, title string) models.Post {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"title": title, "content": "Content of " + title})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.Post](t, w)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome to Blog API", decode[map[string]string](t, w)["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = doJSON(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "test@example.com",
		"username": "testuser",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "testuser", body["username"])
	assert.Equal(t, true, body["is_active"])
	assert.NotZero(t, body["id"])
	assert.NotContains(t, body, "hashed_password")
	assert.NotContains(t, body, "password")
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "testuser")

	tests := []struct {
		name   string
		body   gin.H
		status int
		detail string
	}{
		{"duplicate email", gin.H{"email": "testuser@example.com", "username": "other", "password": testPassword}, http.StatusBadRequest, "Email already registered"},
		{"duplicate username", gin.H{"email": "other@example.com", "username": "testuser", "password": testPassword}, http.StatusBadRequest, "Username already taken"},
		{"weak password", gin.H{"email": "weak@example.com", "username": "weak", "password": "password"}, http.StatusBadRequest, "Invalid password"},
		{"malformed email", gin.H{"email": "not-an-email", "username": "bad", "password": testPassword}, http.StatusUnprocessableEntity, ""},
		{"missing password", gin.H{"email": "x@example.com", "username": "x"}, http.StatusUnprocessableEntity, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.detail != "" {
				assert.Equal(t, tt.detail, decode[map[string]string](t, w)["detail"])
			}
		})
	}
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "testuser")

	w := login(t, s, "testuser", "Wrong123!@#")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = login(t, s, "nobody", testPassword)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = login(t, s, "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreatePostRequiresToken(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"", "not-a-jwt"} {
		w := doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"title": "t", "content": "c"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Could not validate credentials", decode[map[string]string](t, w)["detail"])
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s, "author")

	created := createPost(t, s, token, "Test Post")
	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.AuthorID)

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Post](t, w)
	assert.Equal(t, "Test Post", got.Title)
	assert.Equal(t, created.AuthorID, got.AuthorID)

	w = doJSON(t, s, http.MethodGet, "/api/v1/posts/999", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode[map[string]string](t, w)["detail"])

	w = doJSON(t, s, http.MethodGet, "/api/v1/posts/abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"title": "no content"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreatePostFieldLimits(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s, "author")

	w := doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"title": "x", "content": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "", decode[models.Post](t, w).Content)

	w = doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"title": strings.Repeat("t", 255), "content": "c"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"title": strings.Repeat("t", 256), "content": "c"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/posts/", token, gin.H{"content": "c"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListPosts(t *testing.T) {
	s := newTestServer(t)
	token := registerAndLogin(t, s, "author")
	for i := 1; i <= 3; i++ {
		createPost(t, s, token, fmt.Sprintf("Post %d", i))
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/posts/?page=1&size=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[models.PostPage](t, w)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, 2, page.Pages)

	w = doJSON(t, s, http.MethodGet, "/api/v1/posts/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[models.PostPage](t, w)
	assert.Equal(t, 10, page.Size)
	assert.Len(t, page.Items, 3)

	w = doJSON(t, s, http.MethodGet, "/api/v1/posts/?order=desc&size=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[models.PostPage](t, w)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Post 3", page.Items[0].Title)

	w = doJSON(t, s, http.MethodGet, "/api/v1/posts/?page=4611686018427387904&size=4", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page = decode[models.PostPage](t, w)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Pages)

	for _, query := range []string{"page=0", "size=0", "size=101", "page=abc", "order=sideways"} {
		w = doJSON(t, s, http.MethodGet, "/api/v1/posts/?"+query, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, query)
	}
}

func TestListMyPosts(t *testing.T) {
	s := newTestServer(t)
	alice := registerAndLogin(t, s, "alice")
	bob := registerAndLogin(t, s, "bob")
	createPost(t, s, alice, "Alice 1")
	createPost(t, s, bob, "Bob 1")
	bobsPost := createPost(t, s, bob, "Bob 2")

	w := doJSON(t, s, http.MethodGet, "/api/v1/posts/me", bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[models.PostPage](t, w)
	assert.Equal(t, 2, page.Total)
	for _, post := range page.Items {
		assert.Equal(t, bobsPost.AuthorID, post.AuthorID)
	}

	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/v1/posts/?author_id=%d", bobsPost.AuthorID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.PostPage](t, w).Total)

	w = doJSON(t, s, http.MethodGet, "/api/v1/posts/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnerGuard(t *testing.T) {
	s := newTestServer(t)
	owner := registerAndLogin(t, s, "owner")
	intruder := registerAndLogin(t, s, "intruder")
	post := createPost(t, s, owner, "Original")
	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	w := doJSON(t, s, http.MethodPut, path, intruder, gin.H{"title": "Hijacked", "content": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, s, http.MethodDelete, path, intruder, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, s, http.MethodPut, path, "", gin.H{"title": "Hijacked", "content": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Original", decode[models.Post](t, w).Title)

	w = doJSON(t, s, http.MethodPut, "/api/v1/posts/999", owner, gin.H{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodPut, path, owner, gin.H{"title": "Edited", "content": "New content"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Post](t, w)
	assert.Equal(t, "Edited", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(post.UpdatedAt))

	w = doJSON(t, s, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, s, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/posts/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
