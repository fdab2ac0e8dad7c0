package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/entity"
	"github.com/joseph-ayodele/complaints-extractor/internal/llm"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/spreadsheet"
	"github.com/joseph-ayodele/complaints-extractor/internal/storage"
)

const failSaveTimeout = 10 * time.Second

// Processor turns an uploaded complaints workbook into the processed workbook:
// one model call per row, results merged as new columns.
type Processor struct {
	logger         *slog.Logger
	extractor      llm.FieldExtractor
	jobs           repository.ProcessedFileRepository
	media          *storage.Media
	rowConcurrency int
}

type Option func(*Processor)

// WithRowConcurrency extracts up to n rows at a time. Output order is unchanged.
func WithRowConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.rowConcurrency = n
		}
	}
}

func NewProcessor(
	logger *slog.Logger,
	extractor llm.FieldExtractor,
	jobs repository.ProcessedFileRepository,
	media *storage.Media,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:         logger,
		extractor:      extractor,
		jobs:           jobs,
		media:          media,
		rowConcurrency: 1,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFile runs the job identified by jobID to a terminal status.
// A missing or already finished job yields an error payload without touching
// the record or the media directory. Row-level extraction failures are kept
// in the output's error column and do not fail the job.
func (p *Processor) ProcessFile(ctx context.Context, jobID uuid.UUID) (TaskResult, error) {
	start := time.Now()
	ctx = common.WithJobID(ctx, jobID.String())

	pf, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.logger.Error("processor.job.not_found", "job_id", jobID)
			return errorResult(fmt.Sprintf("job %s not found", jobID)), fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		p.logger.Error("processor.job.load_failed", "job_id", jobID, "err", err)
		return errorResult(err.Error()), fmt.Errorf("load job: %w", err)
	}

	if pf.Status.IsTerminal() {
		err := fmt.Errorf("%w: %s is %s", ErrJobTerminal, jobID, pf.Status)
		p.logger.Warn("processor.job.terminal", "job_id", jobID, "status", pf.Status)
		return errorResult(err.Error()), err
	}

	if err := pf.MarkInProgress(); err != nil {
		return errorResult(err.Error()), err
	}
	if err := p.jobs.Save(ctx, pf); err != nil {
		p.logger.Error("processor.job.start_failed", "job_id", jobID, "err", err)
		return errorResult(err.Error()), fmt.Errorf("mark in progress: %w", err)
	}
	p.logger.Info("processor.job.started", "job_id", jobID, "file_name", pf.FileName)

	outName := constants.OutputFileName(pf.FileName)
	summary, err := p.processJob(ctx, pf, outName)
	if err != nil {
		return p.fail(ctx, pf, start, err)
	}

	done := *pf
	if err := done.MarkCompleted(outName); err != nil {
		return p.fail(ctx, pf, start, err)
	}
	if err := p.jobs.Save(ctx, &done); err != nil {
		p.logger.Error("processor.job.complete_save_failed", "job_id", jobID, "err", err)
		if rmErr := p.media.Remove(outName); rmErr != nil {
			p.logger.Warn("processor.output.remove_failed", "job_id", jobID, "output", outName, "err", rmErr)
		}
		return p.fail(ctx, pf, start, fmt.Errorf("mark completed: %w", err))
	}
	*pf = done

	outPath, _ := p.media.Path(outName)
	p.logger.Info("processor.job.completed",
		"job_id", jobID,
		"output", outName,
		"rows", summary.Rows,
		"failed_rows", summary.FailedRows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return TaskResult{
		Status:     ResultSuccess,
		OutputPath: outPath,
		Rows:       summary.Rows,
		FailedRows: summary.FailedRows,
	}, nil
}

func (p *Processor) processJob(ctx context.Context, pf *entity.ProcessedFile, outName string) (WorkbookSummary, error) {
	inPath, err := p.media.Path(pf.FileName)
	if err != nil {
		return WorkbookSummary{}, err
	}
	outPath, err := p.media.Path(outName)
	if err != nil {
		return WorkbookSummary{}, err
	}
	return p.ExtractWorkbook(ctx, inPath, outPath)
}

// ExtractWorkbook reads the complaints sheet of inPath, extracts every row
// and writes the merged workbook to outPath. Nothing is written when the
// input cannot be read or lacks the description column.
func (p *Processor) ExtractWorkbook(ctx context.Context, inPath, outPath string) (WorkbookSummary, error) {
	table, err := spreadsheet.ReadSheet(inPath, constants.InputSheetIndex)
	if err != nil {
		return WorkbookSummary{}, fmt.Errorf("read workbook: %w", err)
	}

	texts, err := table.Column(constants.DescriptionColumn)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrColumnNotFound) {
			return WorkbookSummary{}, &MissingColumnError{Column: constants.DescriptionColumn, Sheet: table.Sheet}
		}
		return WorkbookSummary{}, err
	}

	results, failed := p.extractRows(ctx, texts)
	if err := ctx.Err(); err != nil {
		return WorkbookSummary{}, fmt.Errorf("extraction interrupted: %w", err)
	}

	merged, err := spreadsheet.Merge(table, results, constants.FieldsAsStringSlice(), constants.ErrorColumn)
	if err != nil {
		return WorkbookSummary{}, fmt.Errorf("merge results: %w", err)
	}
	if err := spreadsheet.Write(outPath, merged); err != nil {
		return WorkbookSummary{}, fmt.Errorf("write workbook: %w", err)
	}
	return WorkbookSummary{Sheet: table.Sheet, Rows: len(texts), FailedRows: failed}, nil
}

// extractRows returns one result per text, results[i] belonging to texts[i].
func (p *Processor) extractRows(ctx context.Context, texts []string) ([]map[string]any, int) {
	results := make([]map[string]any, len(texts))
	var failed atomic.Int64

	if p.rowConcurrency <= 1 {
		for i, text := range texts {
			results[i] = p.extractRow(ctx, i, text, &failed)
		}
		return results, int(failed.Load())
	}

	var g errgroup.Group
	g.SetLimit(p.rowConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			results[i] = p.extractRow(ctx, i, text, &failed)
			return nil
		})
	}
	_ = g.Wait()
	return results, int(failed.Load())
}

func (p *Processor) extractRow(ctx context.Context, i int, text string, failed *atomic.Int64) map[string]any {
	start := time.Now()
	fields, err := p.extractor.ExtractFields(ctx, text)
	if err != nil {
		failed.Add(1)
		p.logger.Warn("processor.row.failed",
			"job_id", common.JobIDFromContext(ctx),
			"row", i+1,
			"err", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return map[string]any{constants.ErrorColumn: err.Error()}
	}
	p.logger.Debug("processor.row.ok",
		"job_id", common.JobIDFromContext(ctx),
		"row", i+1,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return map[string]any(fields)
}

// fail records the structural failure on the job and builds the error payload.
// The save is best effort and survives a cancelled ctx.
func (p *Processor) fail(ctx context.Context, pf *entity.ProcessedFile, start time.Time, cause error) (TaskResult, error) {
	msg := failureMessage(cause)

	if err := pf.MarkFailed(msg); err != nil {
		p.logger.Error("processor.job.mark_failed", "job_id", pf.ID, "err", err)
	} else {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failSaveTimeout)
		defer cancel()
		if err := p.jobs.Save(saveCtx, pf); err != nil {
			p.logger.Error("processor.job.fail_save_failed", "job_id", pf.ID, "err", err)
		}
	}

	p.logger.Error("processor.job.failed",
		"job_id", pf.ID,
		"err", cause,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return errorResult(msg), cause
}

func failureMessage(err error) string {
	var mc *MissingColumnError
	if errors.As(err, &mc) {
		return "workbook column error: " + mc.Error()
	}
	return "unexpected error: " + err.Error()
}
