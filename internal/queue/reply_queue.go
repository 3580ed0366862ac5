package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplyJob is the payload of one delayed auto-reply: insert a reply under
// CommentID on PostID, authored by UserID (the post owner).
type ReplyJob struct {
	PostID    int64  `json:"post_id"`
	CommentID int64  `json:"comment_id"`
	UserID    string `json:"user_id"`
}

// ReplyQueue is a Redis-backed delayed job queue. Jobs live in a sorted
// set scored by their due time; delivery is at-least-once.
type ReplyQueue struct {
	client *redis.Client
	key    string
}

func NewReplyQueue(redisURL, password, key string) (*ReplyQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ReplyQueue{client: rdb, key: key}, nil
}

// Enqueue schedules the job to become due after the given delay.
func (q *ReplyQueue) Enqueue(ctx context.Context, job ReplyJob, delay time.Duration) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	due := time.Now().Add(delay)
	return q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(due.UnixMilli()),
		Member: string(payload),
	}).Err()
}

// DequeueDue claims every job whose due time has passed. A job counts as
// claimed only when ZRem removes it, so two workers never both own one.
func (q *ReplyQueue) DequeueDue(ctx context.Context) ([]ReplyJob, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return nil, err
	}

	var jobs []ReplyJob
	for _, member := range members {
		removed, err := q.client.ZRem(ctx, q.key, member).Result()
		if err != nil {
			return jobs, err
		}
		if removed == 0 {
			// another worker claimed it first
			continue
		}
		var job ReplyJob
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			// malformed member; drop it rather than poison the queue
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Close releases the underlying Redis connection.
func (q *ReplyQueue) Close() error {
	return q.client.Close()
}
