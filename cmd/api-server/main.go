package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"postboard/database"
	"postboard/internal/config"
	"postboard/internal/microservices/http-api/handler"
	"postboard/internal/microservices/http-api/middleware"
	"postboard/internal/microservices/http-api/repository"
	"postboard/internal/microservices/http-api/service"
	"postboard/internal/moderation"
	"postboard/internal/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db, logger); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	replyQueue, err := queue.NewReplyQueue(cfg.RedisURL, cfg.RedisPassword, cfg.ReplyQueueKey)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer replyQueue.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Services
	classifier := moderation.NewPerspectiveClient(cfg.PerspectiveAPIURL, cfg.PerspectiveAPIKey, cfg.ClassifierTimeout, logger)
	gate := moderation.NewGate(classifier)

	authService := service.NewAuthService(userRepo, cfg)
	postService := service.NewPostService(postRepo, gate)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo, gate, replyQueue, cfg.AutoReplyDelay, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	postHandler := handler.NewPostHandler(postService)
	commentHandler := handler.NewCommentHandler(commentService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/api")
	authed := r.Group("/api")
	authed.Use(middleware.AuthMiddleware(authService))
	authed.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	authHandler.RegisterRoutes(public, authed)
	postHandler.RegisterRoutes(public, authed)
	commentHandler.RegisterRoutes(public, authed)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("API server listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
