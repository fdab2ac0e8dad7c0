package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/core/async"
)

func TestModelConfig_Overrides(t *testing.T) {
	mc, err := ModelConfig(common.LLMConfig{
		Model:          "gemini-2.5-pro",
		Temperature:    0.2,
		TopP:           0.5,
		Seed:           7,
		ThinkingBudget: 128,
		Timeout:        5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", mc.Model)
	assert.InDelta(t, 0.2, mc.Temperature, 1e-6)
	assert.Equal(t, int32(7), mc.Seed)
	assert.Equal(t, int32(65535), mc.MaxOutputTokens)
	assert.Equal(t, int32(128), mc.ThinkingBudget)
	assert.Equal(t, 5*time.Second, mc.Timeout)
	assert.NotEmpty(t, mc.SystemInstruction)
}

func TestOpenDatabaseAndQueue(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	dir := t.TempDir()

	db, err := OpenDatabase(ctx, common.DatabaseConfig{
		DSN:         "file:" + filepath.Join(dir, "app.db"),
		DialTimeout: time.Second,
	}, logger)
	require.NoError(t, err)
	defer db.Close(logger)

	cfg := &common.Config{
		Storage: common.StorageConfig{MediaRoot: filepath.Join(dir, "media")},
		LLM:     common.LLMConfig{RowConcurrency: 2},
	}
	proc, media, err := NewProcessor(cfg, nil, db, logger)
	require.NoError(t, err)
	assert.NotNil(t, proc)
	assert.DirExists(t, media.Root())

	q, rdb, err := NewQueue(ctx, common.QueueConfig{Workers: 1, Size: 1, TaskTimeout: time.Minute}, proc, logger)
	require.NoError(t, err)
	assert.Nil(t, rdb)
	assert.IsType(t, &async.ProcessorQueue{}, q)
	q.Shutdown(ctx)

	_, _, err = NewQueue(ctx, common.QueueConfig{RedisURL: "not a url"}, proc, logger)
	assert.Error(t, err)
}
