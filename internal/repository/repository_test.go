package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/entity"
)

func newTestDB(t *testing.T) (*DB, *slog.Logger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"

	db, err := Open(context.Background(), Config{DSN: dsn, DialTimeout: 5 * time.Second}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })

	require.NoError(t, db.Migrate(context.Background(), logger))
	return db, logger
}

func TestOpen_SQLiteAndMigrateIdempotent(t *testing.T) {
	db, logger := newTestDB(t)
	assert.Equal(t, "sqlite3", db.Dialect)
	require.NoError(t, db.Migrate(context.Background(), logger))
	require.NoError(t, db.HealthCheck(context.Background(), time.Second, logger))
}

func TestProcessedFileRepository_Lifecycle(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewProcessedFileRepository(db, logger)
	ctx := context.Background()

	pf := entity.NewProcessedFile("reclamacoes.xlsx")
	require.NoError(t, repo.Create(ctx, pf))

	got, err := repo.GetByID(ctx, pf.ID)
	require.NoError(t, err)
	assert.Equal(t, pf.ID, got.ID)
	assert.Equal(t, "reclamacoes.xlsx", got.FileName)
	assert.Equal(t, constants.JobStatusPending, got.Status)
	assert.Nil(t, got.OutputFileName)
	assert.Nil(t, got.TaskID)
	assert.WithinDuration(t, pf.CreatedAt, got.CreatedAt, time.Second)

	require.NoError(t, repo.SetTaskID(ctx, pf.ID, "task-123"))

	require.NoError(t, got.MarkInProgress())
	require.NoError(t, repo.Save(ctx, got))
	require.NoError(t, got.MarkCompleted("processado_reclamacoes.xlsx"))
	require.NoError(t, repo.Save(ctx, got))

	final, err := repo.GetByID(ctx, pf.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCompleted, final.Status)
	require.NotNil(t, final.OutputFileName)
	assert.Equal(t, "processado_reclamacoes.xlsx", *final.OutputFileName)
	require.NotNil(t, final.TaskID)
	assert.Equal(t, "task-123", *final.TaskID)
}

func TestProcessedFileRepository_NotFound(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewProcessedFileRepository(db, logger)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	ghost := entity.NewProcessedFile("ghost.xlsx")
	assert.ErrorIs(t, repo.Save(ctx, ghost), ErrNotFound)
	assert.ErrorIs(t, repo.SetTaskID(ctx, ghost.ID, "t"), ErrNotFound)
}

func TestProcessedFileRepository_OutputInvariantEnforcedByTable(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewProcessedFileRepository(db, logger)
	ctx := context.Background()

	pf := entity.NewProcessedFile("a.xlsx")
	require.NoError(t, repo.Create(ctx, pf))

	pf.OutputFileName = ptrTo("processado_a.xlsx")
	assert.Error(t, repo.Save(ctx, pf))
}

func TestProcessedFileRepository_List(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewProcessedFileRepository(db, logger)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		pf := entity.NewProcessedFile(name)
		pf.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, pf))
	}

	items, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c.xlsx", items[0].FileName)
	assert.Equal(t, "b.xlsx", items[1].FileName)
}

func TestProcessedFileRepository_ListByStatus(t *testing.T) {
	db, logger := newTestDB(t)
	repo := NewProcessedFileRepository(db, logger)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	created := make([]*entity.ProcessedFile, 0, 3)
	for i, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		pf := entity.NewProcessedFile(name)
		pf.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, pf))
		created = append(created, pf)
	}
	require.NoError(t, created[0].MarkInProgress())
	require.NoError(t, repo.Save(ctx, created[0]))
	require.NoError(t, created[1].MarkFailed("quebrado"))
	require.NoError(t, repo.Save(ctx, created[1]))

	items, err := repo.ListByStatus(ctx, constants.JobStatusPending, constants.JobStatusInProgress)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.xlsx", items[0].FileName)
	assert.Equal(t, "c.xlsx", items[1].FileName)

	items, err = repo.ListByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func ptrTo(s string) *string { return &s }
