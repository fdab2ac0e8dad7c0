// Package app builds the long-lived components shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/core"
	"github.com/joseph-ayodele/complaints-extractor/internal/core/async"
	"github.com/joseph-ayodele/complaints-extractor/internal/llm"
	"github.com/joseph-ayodele/complaints-extractor/internal/llm/gemini"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/storage"
)

// ModelConfig applies the LLM settings from cfg over the production defaults.
func ModelConfig(cfg common.LLMConfig) (llm.ModelConfig, error) {
	mc, err := llm.DefaultModelConfig()
	if err != nil {
		return llm.ModelConfig{}, err
	}
	if cfg.Model != "" {
		mc.Model = cfg.Model
	}
	mc.Temperature = cfg.Temperature
	mc.TopP = cfg.TopP
	mc.Seed = cfg.Seed
	if cfg.MaxOutputTokens > 0 {
		mc.MaxOutputTokens = cfg.MaxOutputTokens
	}
	mc.ThinkingBudget = cfg.ThinkingBudget
	if cfg.Timeout > 0 {
		mc.Timeout = cfg.Timeout
	}
	return mc, nil
}

// NewExtractor wires the Gemini generator into an extraction client.
func NewExtractor(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (*llm.Client, error) {
	mc, err := ModelConfig(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:      cfg.APIKey,
		UseVertexAI: cfg.UseVertexAI,
		Project:     cfg.Project,
		Location:    cfg.Location,
		BaseURL:     cfg.BaseURL,
		Model:       mc,
	}, logger)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(gen, mc.Timeout, logger)
}

// OpenDatabase connects and migrates the job store.
func OpenDatabase(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.HealthCheck(ctx, cfg.DialTimeout, logger); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("database health: %w", err)
	}
	if err := db.Migrate(ctx, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	return db, nil
}

// NewProcessor builds the batch processor over the job store and media root.
func NewProcessor(cfg *common.Config, extractor llm.FieldExtractor, db *repository.DB, logger *slog.Logger) (*core.Processor, *storage.Media, error) {
	media, err := storage.NewMedia(cfg.Storage.MediaRoot, logger)
	if err != nil {
		return nil, nil, err
	}
	jobs := repository.NewProcessedFileRepository(db, logger)
	proc := core.NewProcessor(logger, extractor, jobs, media, core.WithRowConcurrency(cfg.LLM.RowConcurrency))
	return proc, media, nil
}

// NewQueue returns the Redis-backed queue when REDIS_URL is set and the
// in-process worker pool otherwise. The Redis client is nil in the latter case.
func NewQueue(ctx context.Context, cfg common.QueueConfig, proc async.FileProcessor, logger *slog.Logger) (async.Queue, *redis.Client, error) {
	opts := []async.Option{
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.Size),
		async.WithProcessTimeout(cfg.TaskTimeout),
	}
	if cfg.RedisURL == "" {
		return async.NewProcessorQueue(proc, logger, opts...), nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("using redis task queue", "key", cfg.RedisKey)
	return async.NewRedisQueue(rdb, cfg.RedisKey, proc, logger, opts...), rdb, nil
}
