package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/internal/core"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// abortGrace bounds the wait for cancelled tasks to record their failure.
var abortGrace = 15 * time.Second

// Task asks a worker to process one job record.
type Task struct {
	ID          string    `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	RequestID   string    `json:"request_id,omitempty"`
}

// NewTask returns a task with a fresh id for jobID.
func NewTask(jobID uuid.UUID) Task {
	return Task{
		ID:          uuid.NewString(),
		JobID:       jobID,
		SubmittedAt: time.Now().UTC(),
	}
}

// FileProcessor is implemented by *core.Processor.
type FileProcessor interface {
	ProcessFile(ctx context.Context, jobID uuid.UUID) (core.TaskResult, error)
}

// Queue dispatches tasks to background workers. Enqueue returns the task id
// to persist on the job record.
type Queue interface {
	Enqueue(ctx context.Context, task Task) (string, error)
	Shutdown(ctx context.Context)
}

type options struct {
	workers int
	size    int
	timeout time.Duration
}

func defaultOptions() options {
	return options{workers: 2, size: 64, timeout: 2 * time.Hour}
}

type Option func(*options)

func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
