package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/complaints-extractor/internal/app"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/ingest"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err, "code", common.ErrorCode(err))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("complaintsd exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	db, err := app.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	extractor, err := app.NewExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	proc, media, err := app.NewProcessor(cfg, extractor, db, logger)
	if err != nil {
		return err
	}

	queue, rdb, err := app.NewQueue(ctx, cfg.Queue, proc, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	deps := server.Deps{
		Jobs:           repository.NewProcessedFileRepository(db, logger),
		Media:          media,
		Queue:          queue,
		DB:             db,
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if rdb != nil {
		deps.Redis = rdb
	}
	httpSrv := server.New(deps)

	if rdb == nil {
		// buffered in-process tasks are lost on exit; pick their jobs up again
		n, err := ingest.NewService(deps.Jobs, media, queue, logger).Resume(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("resumed unfinished jobs", "count", n)
		}
	}

	inboxCtx, stopInbox := context.WithCancel(ctx)
	defer stopInbox()
	inboxDone := make(chan struct{})
	if cfg.Inbox.Dir != "" {
		if err := os.MkdirAll(cfg.Inbox.Dir, 0o755); err != nil {
			return err
		}
		inbox := ingest.NewService(deps.Jobs, media, queue, logger)
		go func() {
			defer close(inboxDone)
			wc := ingest.WatchConfig{Root: cfg.Inbox.Dir, InitialScan: true, Debounce: cfg.Inbox.Debounce}
			if err := inbox.RunInbox(inboxCtx, wc); err != nil {
				logger.Error("inbox stopped", "error", err)
			}
		}()
	} else {
		close(inboxDone)
	}

	// gRPC health service with reflection for grpcurl
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC health serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()
	go func() {
		if err := httpSrv.Listen(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	hs.Shutdown()
	stopInbox()
	<-inboxDone
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return runErr
}
