package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blogapi/internal/config"
	"blogapi/internal/repository"
	"blogapi/internal/server"
	"blogapi/internal/service"
)

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database connection
	db, err := repository.NewDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := repository.MigrateDB(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	tokenService, err := service.NewTokenService(
		cfg.Security.SecretKey,
		cfg.Security.Algorithm,
		time.Duration(cfg.Security.AccessTokenExpireMinutes)*time.Minute,
	)
	if err != nil {
		logger.Fatal("Failed to initialize token service", zap.Error(err))
	}

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db, logger)
	postRepo := repository.NewPostRepository(db, logger)

	authService, err := service.NewAuthService(userRepo, tokenService, logger)
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}
	postService := service.NewPostService(postRepo, logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.NewServer(db, cfg, authService, postService, logger)
	logger.Info("Starting application",
		zap.String("project", cfg.ProjectName),
		zap.String("version", cfg.Version),
		zap.Bool("debug", cfg.Debug),
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Application stopped.")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
