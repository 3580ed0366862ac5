package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"postboard/internal/microservices/http-api/dto"
	"postboard/internal/microservices/http-api/service"
	"postboard/internal/queue"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	batches [][]queue.ReplyJob
	calls   int
	err     error
}

func (f *fakeSource) DequeueDue(ctx context.Context) ([]queue.ReplyJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.batches) {
		return nil, nil
	}
	batch := f.batches[f.calls]
	f.calls++
	return batch, nil
}

type fakeCommentService struct {
	service.CommentService

	created []queue.ReplyJob
	err     error
}

func (f *fakeCommentService) CreateAutoReply(ctx context.Context, job queue.ReplyJob) (*dto.CommentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, job)
	return &dto.CommentResponse{ID: 100 + int64(len(f.created))}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerProcessesDueJobs(t *testing.T) {
	source := &fakeSource{batches: [][]queue.ReplyJob{{
		{PostID: 1, CommentID: 2, UserID: "u1"},
		{PostID: 1, CommentID: 3, UserID: "u1"},
	}}}
	svc := &fakeCommentService{}
	w := New(source, svc, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, svc.created, 2)
	assert.Equal(t, int64(2), svc.created[0].CommentID)
	assert.Equal(t, int64(3), svc.created[1].CommentID)
}

func TestWorkerDropsJobForVanishedTarget(t *testing.T) {
	source := &fakeSource{batches: [][]queue.ReplyJob{{
		{PostID: 1, CommentID: 2, UserID: "u1"},
	}}}
	svc := &fakeCommentService{err: service.ErrCommentNotFound}
	w := New(source, svc, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)

	// the loop keeps running after dropping the job
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, svc.created)
}

func TestWorkerSurvivesDequeueErrors(t *testing.T) {
	source := &fakeSource{err: errors.New("redis down")}
	w := New(source, &fakeCommentService{}, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	w := New(source, &fakeCommentService{}, time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
