package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/entity"
)

// ErrNotFound is returned when no job record matches the id.
var ErrNotFound = common.ErrNotFound

const processedFileTable = "processed_file"

var processedFileColumns = []string{
	"id", "file_name", "status", "output_file_name", "task_id", "error_message", "created_at", "updated_at",
}

// ProcessedFileRepository persists job records.
type ProcessedFileRepository interface {
	Create(ctx context.Context, pf *entity.ProcessedFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProcessedFile, error)
	// Save writes the processor-owned fields of pf: status, output, error and updated_at.
	// task_id is only written by SetTaskID.
	Save(ctx context.Context, pf *entity.ProcessedFile) error
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error
	// List returns the most recent records first.
	List(ctx context.Context, limit int) ([]*entity.ProcessedFile, error)
	// ListByStatus returns every record in one of statuses, oldest first.
	ListByStatus(ctx context.Context, statuses ...constants.JobStatus) ([]*entity.ProcessedFile, error)
}

type processedFileRepo struct {
	drv     *entsql.Driver
	dialect string
	logger  *slog.Logger
}

func NewProcessedFileRepository(db *DB, logger *slog.Logger) ProcessedFileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &processedFileRepo{drv: db.Driver, dialect: db.Dialect, logger: logger}
}

func (r *processedFileRepo) Create(ctx context.Context, pf *entity.ProcessedFile) error {
	if pf.ID == uuid.Nil {
		pf.ID = uuid.New()
	}
	if pf.Status == "" {
		pf.Status = constants.JobStatusPending
	}
	now := time.Now().UTC()
	if pf.CreatedAt.IsZero() {
		pf.CreatedAt = now
	}
	pf.UpdatedAt = pf.CreatedAt

	q, args := entsql.Dialect(r.dialect).
		Insert(processedFileTable).
		Columns(processedFileColumns...).
		Values(
			pf.ID.String(),
			pf.FileName,
			string(pf.Status),
			nullable(pf.OutputFileName),
			nullable(pf.TaskID),
			nullable(pf.ErrorMessage),
			pf.CreatedAt,
			pf.UpdatedAt,
		).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("processed_file create failed", "file_name", pf.FileName, "err", err)
		return fmt.Errorf("%w: create processed_file: %v", common.ErrDatabase, err)
	}
	r.logger.Info("processed_file created", "job_id", pf.ID, "file_name", pf.FileName)
	return nil
}

func (r *processedFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProcessedFile, error) {
	q, args := entsql.Dialect(r.dialect).
		Select(processedFileColumns...).
		From(entsql.Table(processedFileTable)).
		Where(entsql.EQ("id", id.String())).
		Limit(1).
		Query()

	items, err := r.query(ctx, q, args)
	if err != nil {
		r.logger.Error("processed_file get failed", "job_id", id, "err", err)
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("processed_file %s: %w", id, ErrNotFound)
	}
	return items[0], nil
}

func (r *processedFileRepo) Save(ctx context.Context, pf *entity.ProcessedFile) error {
	if pf.UpdatedAt.IsZero() {
		pf.UpdatedAt = time.Now().UTC()
	}
	q, args := entsql.Dialect(r.dialect).
		Update(processedFileTable).
		Set("status", string(pf.Status)).
		Set("output_file_name", nullable(pf.OutputFileName)).
		Set("error_message", nullable(pf.ErrorMessage)).
		Set("updated_at", pf.UpdatedAt).
		Where(entsql.EQ("id", pf.ID.String())).
		Query()

	if err := r.execOne(ctx, q, args, pf.ID); err != nil {
		r.logger.Error("processed_file save failed", "job_id", pf.ID, "status", pf.Status, "err", err)
		return err
	}
	r.logger.Debug("processed_file saved", "job_id", pf.ID, "status", pf.Status)
	return nil
}

func (r *processedFileRepo) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	q, args := entsql.Dialect(r.dialect).
		Update(processedFileTable).
		Set("task_id", taskID).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id.String())).
		Query()

	if err := r.execOne(ctx, q, args, id); err != nil {
		r.logger.Error("processed_file set task id failed", "job_id", id, "err", err)
		return err
	}
	return nil
}

func (r *processedFileRepo) List(ctx context.Context, limit int) ([]*entity.ProcessedFile, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q, args := entsql.Dialect(r.dialect).
		Select(processedFileColumns...).
		From(entsql.Table(processedFileTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

func (r *processedFileRepo) ListByStatus(ctx context.Context, statuses ...constants.JobStatus) ([]*entity.ProcessedFile, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]any, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	q, args := entsql.Dialect(r.dialect).
		Select(processedFileColumns...).
		From(entsql.Table(processedFileTable)).
		Where(entsql.In("status", values...)).
		OrderBy("created_at", "id").
		Query()
	return r.query(ctx, q, args)
}

func (r *processedFileRepo) execOne(ctx context.Context, q string, args []any, id uuid.UUID) error {
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("processed_file %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *processedFileRepo) query(ctx context.Context, q string, args []any) ([]*entity.ProcessedFile, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.ProcessedFile
	for rows.Next() {
		pf, err := scanProcessedFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanProcessedFile(rows *entsql.Rows) (*entity.ProcessedFile, error) {
	var (
		id, status           string
		output, task, errMsg sql.NullString
		pf                   entity.ProcessedFile
	)
	if err := rows.Scan(&id, &pf.FileName, &status, &output, &task, &errMsg, &pf.CreatedAt, &pf.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: scan processed_file: %v", common.ErrDatabase, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: processed_file id %q: %v", common.ErrDatabase, id, err)
	}
	pf.ID = parsed
	pf.Status = constants.JobStatus(status)
	if !pf.Status.Valid() {
		return nil, fmt.Errorf("%w: processed_file %s has unknown status %q", common.ErrDatabase, id, status)
	}
	pf.OutputFileName = ptr(output)
	pf.TaskID = ptr(task)
	pf.ErrorMessage = ptr(errMsg)
	pf.CreatedAt = pf.CreatedAt.UTC()
	pf.UpdatedAt = pf.UpdatedAt.UTC()
	return &pf, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
