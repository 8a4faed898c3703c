package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey is the list key jobs are pushed to.
	DefaultRedisKey = "rir-manager:jobs"

	// pollTimeout bounds each blocking pop so cancellation is noticed.
	pollTimeout = 5 * time.Second
)

// RedisQueue is a Queue stored in a Redis list. Producers LPUSH and the
// worker BRPOPs, giving FIFO order across processes.
type RedisQueue struct {
	client *redis.Client
	key    string
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue creates a queue on client. An empty key uses DefaultRedisKey.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

// DialRedis parses url and verifies the server is reachable.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Enqueue implements Enqueuer
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

// Dequeue implements Queue
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}

		res, err := q.client.BRPop(ctx, pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if errors.Is(err, redis.ErrClosed) {
			return Job{}, ErrQueueClosed
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("failed to pop job: %w", err)
		}

		// BRPOP returns [key, value]
		if len(res) < 2 {
			continue
		}
		job, err := decodeJob(res[1])
		if err != nil {
			slog.Error("Dropping undecodable job", "key", q.key, "error", err)
			continue
		}
		return job, nil
	}
}

func decodeJob(payload string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return Job{}, fmt.Errorf("failed to decode job: %w", err)
	}
	if job.Type == "" {
		return Job{}, errors.New("job has no type")
	}
	return job, nil
}

// Ping implements Queue
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close implements Queue
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
