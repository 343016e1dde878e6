package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipe-box/internal/config"
	"github.com/recipe-box/internal/handler"
	"github.com/recipe-box/internal/middleware"
	"github.com/recipe-box/internal/models"
	"github.com/recipe-box/internal/repository"
	"github.com/recipe-box/internal/service"
	"github.com/recipe-box/internal/spoonacular"
	"github.com/recipe-box/internal/web"
	"github.com/recipe-box/pkg/keygen"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// gin.SetMode panics on unknown modes
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	if err := middleware.InitLogger(cfg.Log.Dir, cfg.Server.Mode != gin.ReleaseMode); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if cfg.Session.Secret == "" {
		secret, err := keygen.Secret(48)
		if err != nil {
			middleware.Logger().Fatal().Err(err).Msg("Failed to generate session secret")
		}
		cfg.Session.Secret = secret
		middleware.LogInfo("No session secret configured, generated a temporary one; sessions will not survive a restart")
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		middleware.Logger().Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize Redis
	rdb := initRedis(cfg)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		middleware.LogError("Redis is not reachable at startup: %v", err)
	}
	cancelPing()

	// Auto migrate database
	if err := autoMigrate(db); err != nil {
		middleware.Logger().Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	sessionRepo := repository.NewSessionRepository(rdb)

	// Initialize services
	if cfg.Spoonacular.APIKey == "" {
		middleware.LogError("SPOONACULAR_API_KEY is not set; random recipes and trivia will fail")
	}
	recipeSource := spoonacular.NewClient(cfg.Spoonacular.BaseURL, cfg.Spoonacular.APIKey, cfg.Spoonacular.Timeout())
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.Session)
	recipeService := service.NewRecipeService(recipeRepo, recipeSource)

	templates, err := web.Templates()
	if err != nil {
		middleware.Logger().Fatal().Err(err).Msg("Failed to parse templates")
	}

	router := handler.NewRouter(handler.RouterConfig{
		AuthService:   authService,
		RecipeService: recipeService,
		Session:       cfg.Session,
		Templates:     templates,
		Build: handler.BuildInfo{
			Version:   Version,
			Commit:    Commit,
			BuildTime: BuildTime,
		},
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		middleware.LogInfo("Starting server on %s (version %s)", addr, Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			middleware.Logger().Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	middleware.LogInfo("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.Logger().Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		middleware.LogError("Error closing Redis connection: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			middleware.LogError("Error closing database connection: %v", err)
		}
	}

	middleware.LogInfo("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == gin.ReleaseMode {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
	)
}
