package async

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/complaints-extractor/internal/common"
)

const (
	redisPollTimeout = 5 * time.Second
	redisRetryDelay  = time.Second
)

// RedisQueue keeps tasks in a Redis list (LPUSH / BRPOP) so they survive a
// daemon restart and can be shared by several worker processes.
type RedisQueue struct {
	client  redis.UniversalClient
	key     string
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ctx    context.Context // polling
	cancel context.CancelFunc
	base   context.Context // running tasks
	abort  context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRedisQueue(client redis.UniversalClient, key string, proc FileProcessor, logger *slog.Logger, opts ...Option) *RedisQueue {
	if logger == nil {
		logger = slog.Default()
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &RedisQueue{
		client:  client,
		key:     key,
		proc:    proc,
		logger:  logger,
		workers: o.workers,
		timeout: o.timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	q.base, q.abort = context.WithCancel(context.Background())
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(i + 1)
	}
	return q
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) (string, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return "", ErrQueueClosed
	}

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now().UTC()
	}
	if task.RequestID == "" {
		task.RequestID = common.RequestIDFromContext(ctx)
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.Error("redis enqueue failed", "job_id", task.JobID, "error", err)
		return "", fmt.Errorf("redis lpush: %w", err)
	}
	q.logger.Info("queued job for processing", "job_id", task.JobID, "task_id", task.ID, "queue", q.key)
	return task.ID, nil
}

// Len reports how many tasks are waiting in the list.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Info("worker started", "worker_id", workerID, "queue", q.key)
	defer q.logger.Info("worker stopped", "worker_id", workerID)

	for {
		res, err := q.client.BRPop(q.ctx, redisPollTimeout, q.key).Result()
		if err != nil {
			if q.ctx.Err() != nil {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			q.logger.Warn("redis dequeue failed", "worker_id", workerID, "error", err)
			select {
			case <-q.ctx.Done():
				return
			case <-time.After(redisRetryDelay):
			}
			continue
		}

		// BRPOP replies with [key, value]
		if len(res) != 2 {
			continue
		}
		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil || task.JobID == uuid.Nil {
			q.logger.Error("dropping malformed task", "worker_id", workerID, "payload", res[1], "error", err)
			continue
		}
		runTask(q.base, q.proc, q.logger, q.timeout, workerID, task)
	}
}

// Shutdown stops polling and waits for in-flight tasks, cancelling them when
// ctx ends first. Tasks still in the list stay there for the next start.
func (q *RedisQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	if !waitDrained(ctx, &q.wg, q.logger) {
		abortInFlight(q.abort, &q.wg, q.logger)
	}
	q.abort()
}
