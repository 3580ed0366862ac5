package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"postboard/database"
	"postboard/internal/config"
	"postboard/internal/microservices/http-api/repository"
	"postboard/internal/microservices/http-api/service"
	"postboard/internal/microservices/worker"
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

	replyQueue, err := queue.NewReplyQueue(cfg.RedisURL, cfg.RedisPassword, cfg.ReplyQueueKey)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer replyQueue.Close()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	classifier := moderation.NewPerspectiveClient(cfg.PerspectiveAPIURL, cfg.PerspectiveAPIKey, cfg.ClassifierTimeout, logger)
	gate := moderation.NewGate(classifier)

	commentService := service.NewCommentService(commentRepo, postRepo, userRepo, gate, replyQueue, cfg.AutoReplyDelay, logger)

	w := worker.New(replyQueue, commentService, cfg.WorkerPollInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", "error", err)
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
