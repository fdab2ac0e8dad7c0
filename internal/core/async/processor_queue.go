package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/internal/common"
)

// ProcessorQueue runs tasks on a fixed pool of in-process workers.
type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	// base parents every task context; abort cancels it when shutdown runs out of time.
	base  context.Context
	abort context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: o.workers,
		timeout: o.timeout,
		ch:      make(chan Task, o.size),
	}
	q.base, q.abort = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for task := range q.ch {
					if q.base.Err() != nil {
						q.logger.Warn("task left pending after abort", "worker_id", workerID, "task_id", task.ID, "job_id", task.JobID)
						continue
					}
					runTask(q.base, q.proc, q.logger, q.timeout, workerID, task)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) Enqueue(ctx context.Context, task Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now().UTC()
	}
	if task.RequestID == "" {
		task.RequestID = common.RequestIDFromContext(ctx)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", task.JobID)
		return "", ErrQueueClosed
	}
	select {
	case q.ch <- task:
		q.logger.Info("queued job for processing", "job_id", task.JobID, "task_id", task.ID)
		return task.ID, nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "job_id", task.JobID)
	select {
	case q.ch <- task:
		return task.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len reports how many tasks are buffered and not yet picked up.
func (q *ProcessorQueue) Len(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

// Shutdown stops intake and waits for queued and running tasks. When ctx ends
// first, running tasks are cancelled so each records a terminal status, and
// tasks still buffered are dropped with their jobs left PENDING.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	if !waitDrained(ctx, &q.wg, q.logger) {
		abortInFlight(q.abort, &q.wg, q.logger)
	}
	q.abort()
}

// runTask processes one task under its own deadline, detached from the
// caller that enqueued it. base is owned by the queue.
func runTask(base context.Context, proc FileProcessor, logger *slog.Logger, timeout time.Duration, workerID int, task Task) {
	ctx := base
	if task.RequestID != "" {
		ctx = common.WithRequestID(ctx, task.RequestID)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := proc.ProcessFile(ctx, task.JobID)
	if err != nil {
		logger.Error("processing failed",
			"worker_id", workerID,
			"task_id", task.ID,
			"job_id", task.JobID,
			"status", res.Status,
			"message", res.Message,
			"error", err,
		)
		return
	}
	logger.Info("processed job successfully",
		"worker_id", workerID,
		"task_id", task.ID,
		"job_id", task.JobID,
		"output_path", res.OutputPath,
		"rows", res.Rows,
		"failed_rows", res.FailedRows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// waitDrained reports whether every worker returned before ctx ended.
func waitDrained(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger) bool {
	done := make(chan struct{})
	go func() { defer close(done); wg.Wait() }()

	select {
	case <-ctx.Done():
		logger.Warn("shutdown interrupted by context")
		return false
	case <-done:
		logger.Info("queue drained, shutdown complete")
		return true
	}
}

// abortInFlight cancels running tasks and gives them abortGrace to save
// their failure before the process goes away.
func abortInFlight(abort context.CancelFunc, wg *sync.WaitGroup, logger *slog.Logger) {
	logger.Warn("cancelling in-flight tasks")
	abort()
	ctx, cancel := context.WithTimeout(context.Background(), abortGrace)
	defer cancel()
	waitDrained(ctx, wg, logger)
}
