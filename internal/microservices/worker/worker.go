package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"postboard/internal/microservices/http-api/service"
	"postboard/internal/queue"
)

// JobSource yields the auto-reply jobs that have become due.
type JobSource interface {
	DequeueDue(ctx context.Context) ([]queue.ReplyJob, error)
}

// Worker drains the delayed reply queue and turns each due job into a
// reply comment through the ordinary insert path.
type Worker struct {
	source         JobSource
	commentService service.CommentService
	pollInterval   time.Duration
	logger         *slog.Logger
}

func New(source JobSource, commentService service.CommentService, pollInterval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		source:         source,
		commentService: commentService,
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

// Run polls until the context is cancelled. A failing poll or job is
// logged and never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("reply worker started", "poll_interval", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reply worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and processes every job that is currently due.
func (w *Worker) drain(ctx context.Context) {
	jobs, err := w.source.DequeueDue(ctx)
	if err != nil {
		w.logger.Error("dequeue failed", "error", err)
		return
	}

	for _, job := range jobs {
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job queue.ReplyJob) {
	reply, err := w.commentService.CreateAutoReply(ctx, job)
	if err != nil {
		// The target comment or its post was deleted while the job sat
		// in the queue. Drop the job; there is nothing to reply to.
		if errors.Is(err, service.ErrCommentNotFound) || errors.Is(err, service.ErrPostNotFound) {
			w.logger.Warn("dropping auto-reply for vanished target",
				"post_id", job.PostID, "comment_id", job.CommentID)
			return
		}
		w.logger.Error("auto-reply insert failed",
			"post_id", job.PostID, "comment_id", job.CommentID, "error", err)
		return
	}

	w.logger.Info("auto-reply posted",
		"post_id", job.PostID, "parent_id", job.CommentID, "reply_id", reply.ID)
}
