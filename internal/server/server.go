package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blogapi/internal/config"
	"blogapi/internal/handler"
	"blogapi/internal/middleware"
	"blogapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	router      *gin.Engine
	db          *sqlx.DB
	cfg         *config.Config
	logger      *zap.Logger
	authService service.AuthService
	postService service.PostService
}

func NewServer(db *sqlx.DB, cfg *config.Config, authService service.AuthService, postService service.PostService, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	s := &Server{
		router:      router,
		db:          db,
		cfg:         cfg,
		logger:      logger,
		authService: authService,
		postService: postService,
	}

	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	authHandler := handler.NewAuthHandler(s.authService, s.logger)
	postHandler := handler.NewPostHandler(s.postService, s.logger)

	requireAuth := middleware.AuthMiddleware(s.authService, s.logger)
	requireOwner := middleware.PostOwnerMiddleware(s.postService, s.logger)

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Welcome to %s", s.cfg.ProjectName)})
	})

	s.router.GET("/health", func(c *gin.Context) {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			s.logger.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected", "version": s.cfg.Version})
	})

	api := s.router.Group(s.cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/token", authHandler.Token)

	posts := api.Group("/posts")
	{
		posts.GET("/", postHandler.List)
		posts.POST("/", requireAuth, postHandler.Create)
		posts.GET("/me", requireAuth, postHandler.ListMine)
		posts.GET("/:id", postHandler.Get)
		posts.PUT("/:id", requireAuth, requireOwner, postHandler.Update)
		posts.DELETE("/:id", requireAuth, requireOwner, postHandler.Delete)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exited")
	return nil
}
