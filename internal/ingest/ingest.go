// Package ingest turns incoming workbooks into dispatched jobs, from HTTP
// uploads or from a watched inbox directory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/core/async"
	"github.com/joseph-ayodele/complaints-extractor/internal/entity"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/storage"
)

// ErrDispatch means the job was recorded but could not be queued; the record is FAILED.
var ErrDispatch = errors.New("dispatch failed")

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath string
	JobID      uuid.UUID
	FileName   string
	TaskID     string
	Err        string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

type Service struct {
	jobs   repository.ProcessedFileRepository
	media  *storage.Media
	queue  async.Queue
	logger *slog.Logger
}

func NewService(jobs repository.ProcessedFileRepository, media *storage.Media, queue async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, media: media, queue: queue, logger: logger}
}

// Submit stores the workbook under the media root, creates its PENDING job
// record and dispatches it. The returned record carries the task id.
func (s *Service) Submit(ctx context.Context, original string, r io.Reader) (*entity.ProcessedFile, error) {
	if err := common.NewValidator().
		Field("file_name", original, common.Required, common.MaxLength(200), common.SpreadsheetName).
		Error(); err != nil {
		return nil, err
	}

	name, err := s.media.SaveSpreadsheet(original, r)
	if err != nil {
		return nil, err
	}

	pf := entity.NewProcessedFile(name)
	if err := s.jobs.Create(ctx, pf); err != nil {
		_ = s.media.Remove(name)
		return nil, err
	}

	taskID, err := s.queue.Enqueue(ctx, async.NewTask(pf.ID))
	if err != nil {
		s.logger.Error("ingest.enqueue_failed", "job_id", pf.ID, "err", err)
		if merr := pf.MarkFailed("dispatch failed: " + err.Error()); merr == nil {
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if serr := s.jobs.Save(saveCtx, pf); serr != nil {
				s.logger.Error("ingest.fail_save_failed", "job_id", pf.ID, "err", serr)
			}
		}
		return pf, fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	if err := s.jobs.SetTaskID(ctx, pf.ID, taskID); err != nil {
		s.logger.Warn("ingest.task_id_not_saved", "job_id", pf.ID, "task_id", taskID, "err", err)
	} else {
		pf.TaskID = &taskID
	}

	s.logger.Info("ingest.accepted", "job_id", pf.ID, "file_name", name, "task_id", taskID)
	return pf, nil
}

// Resume re-dispatches every PENDING or IN_PROGRESS record. It is meant for
// startup with the in-process queue, whose buffered tasks do not survive a
// restart. It returns how many records were queued.
func (s *Service) Resume(ctx context.Context) (int, error) {
	open, err := s.jobs.ListByStatus(ctx, constants.JobStatusPending, constants.JobStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("list unfinished jobs: %w", err)
	}

	n := 0
	for _, pf := range open {
		taskID, err := s.queue.Enqueue(ctx, async.NewTask(pf.ID))
		if err != nil {
			return n, fmt.Errorf("%w: %v", ErrDispatch, err)
		}
		if err := s.jobs.SetTaskID(ctx, pf.ID, taskID); err != nil {
			s.logger.Warn("ingest.task_id_not_saved", "job_id", pf.ID, "task_id", taskID, "err", err)
		}
		s.logger.Info("ingest.resumed", "job_id", pf.ID, "status", pf.Status, "task_id", taskID)
		n++
	}
	return n, nil
}
