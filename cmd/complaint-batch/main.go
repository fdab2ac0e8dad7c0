package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/app"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/core"
	"github.com/joseph-ayodele/complaints-extractor/internal/core/async"
	"github.com/joseph-ayodele/complaints-extractor/internal/ingest"
	"github.com/joseph-ayodele/complaints-extractor/internal/llm"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in          = flag.String("in", "", "workbook to process (.xlsx)")
		out         = flag.String("out", "", "output workbook path (defaults to processado_<name> next to the input)")
		jobStr      = flag.String("job", "", "process an existing job record by id instead of -in")
		dir         = flag.String("dir", "", "ingest every workbook under this directory as a job")
		skipHidden  = flag.Bool("skip-hidden", true, "skip dotfiles and dot-directories when walking -dir")
		concurrency = flag.Int("concurrency", 0, "rows extracted at a time (overrides ROW_CONCURRENCY)")
	)
	flag.Parse()

	modes := 0
	for _, v := range []string{*in, *jobStr, *dir} {
		if v != "" {
			modes++
		}
	}
	if modes != 1 {
		printError("Error: exactly one of --in, --job or --dir is required\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *concurrency > 0 {
		cfg.LLM.RowConcurrency = *concurrency
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := app.NewExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to initialize extractor", "error", err)
		os.Exit(1)
	}

	if *jobStr != "" {
		os.Exit(runJob(ctx, cfg, extractor, *jobStr, logger))
	}
	if *dir != "" {
		os.Exit(runDir(ctx, cfg, extractor, *dir, *skipHidden, logger))
	}
	os.Exit(runFile(ctx, cfg, extractor, *in, *out, logger))
}

// runFile processes a local workbook without touching the job store.
func runFile(ctx context.Context, cfg *common.Config, extractor *llm.Client, in, out string, logger *slog.Logger) int {
	if !constants.AllowedExt(filepath.Ext(in)) {
		printError("Error: %s is not an .xlsx or .xlsm workbook\n", in)
		return 1
	}
	if out == "" {
		out = filepath.Join(filepath.Dir(in), constants.OutputFileName(filepath.Base(in)))
	}

	proc := core.NewProcessor(logger, extractor, nil, nil, core.WithRowConcurrency(cfg.LLM.RowConcurrency))
	start := time.Now()
	summary, err := proc.ExtractWorkbook(ctx, in, out)
	if err != nil {
		logger.Error("batch failed", "input", in, "error", err)
		return 1
	}
	logger.Info("batch completed",
		"input", in,
		"output", out,
		"sheet", summary.Sheet,
		"rows", summary.Rows,
		"failed_rows", summary.FailedRows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	fmt.Println(out)
	return 0
}

// runJob drives an existing job record synchronously, as a queue worker would.
func runJob(ctx context.Context, cfg *common.Config, extractor *llm.Client, jobStr string, logger *slog.Logger) int {
	jobID, err := uuid.Parse(jobStr)
	if err != nil {
		printError("Error: invalid --job id: %v\n", err)
		return 1
	}

	db, err := app.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close(logger)

	proc, _, err := app.NewProcessor(cfg, extractor, db, logger)
	if err != nil {
		logger.Error("failed to build processor", "error", err)
		return 1
	}

	res, err := proc.ProcessFile(ctx, jobID)
	if err != nil {
		logger.Error("job failed", "job_id", jobID, "status", res.Status, "message", res.Message, "error", err)
		return 1
	}
	logger.Info("job completed", "job_id", jobID, "output_path", res.OutputPath, "rows", res.Rows, "failed_rows", res.FailedRows)
	fmt.Println(res.OutputPath)
	return 0
}

// runDir walks a directory, registers every workbook as a job and drains
// them through the in-process worker pool before reporting.
func runDir(ctx context.Context, cfg *common.Config, extractor llm.FieldExtractor, dir string, skipHidden bool, logger *slog.Logger) int {
	db, err := app.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close(logger)

	proc, media, err := app.NewProcessor(cfg, extractor, db, logger)
	if err != nil {
		logger.Error("failed to build processor", "error", err)
		return 1
	}
	jobs := repository.NewProcessedFileRepository(db, logger)
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.TaskTimeout),
	)

	start := time.Now()
	results, stats, err := ingest.NewService(jobs, media, queue, logger).IngestDirectory(ctx, dir, skipHidden)
	// Waits for every dispatched job; an interrupt aborts the running ones.
	queue.Shutdown(ctx)
	if err != nil {
		logger.Error("directory walk failed", "dir", dir, "error", err)
	}

	var completed, failed int
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("file rejected", "path", r.SourcePath, "error", r.Err)
			continue
		}
		pf, gerr := jobs.GetByID(context.WithoutCancel(ctx), r.JobID)
		if gerr != nil {
			logger.Error("job lookup failed", "job_id", r.JobID, "error", gerr)
			failed++
			continue
		}
		if !pf.IsDownloadable() {
			failed++
			logger.Warn("job not completed", "path", r.SourcePath, "job_id", r.JobID, "status", pf.Status)
			continue
		}
		completed++
		out, _ := media.Path(*pf.OutputFileName)
		fmt.Printf("%s\t%s\n", r.SourcePath, out)
	}

	logger.Info("directory batch finished",
		"dir", dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"ingested", stats.Succeeded,
		"rejected", stats.Failed,
		"completed", completed,
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil || stats.Failed > 0 || failed > 0 {
		return 1
	}
	return 0
}
