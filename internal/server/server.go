// Package server exposes the upload, status and download endpoints over fiber.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/core/async"
	"github.com/joseph-ayodele/complaints-extractor/internal/export"
	"github.com/joseph-ayodele/complaints-extractor/internal/ingest"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/storage"
)

const defaultMaxUpload = 50 << 20

// HealthChecker is satisfied by *repository.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error
}

// QueueDepth is implemented by queues that can report their backlog.
type QueueDepth interface {
	Len(ctx context.Context) (int64, error)
}

type Deps struct {
	Jobs           repository.ProcessedFileRepository
	Media          *storage.Media
	Queue          async.Queue
	DB             HealthChecker
	Redis          redis.UniversalClient // optional, deep health only
	Logger         *slog.Logger
	MaxUploadBytes int
}

type Server struct {
	app    *fiber.App
	jobs   repository.ProcessedFileRepository
	media  *storage.Media
	ingest *ingest.Service
	export *export.Service
	depth  QueueDepth
	db     HealthChecker
	redis  redis.UniversalClient
	logger *slog.Logger
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUpload
	}
	s := &Server{
		jobs:   d.Jobs,
		media:  d.Media,
		ingest: ingest.NewService(d.Jobs, d.Media, d.Queue, d.Logger),
		export: export.NewService(d.Jobs, d.Logger),
		db:     d.DB,
		redis:  d.Redis,
		logger: d.Logger,
	}

	if qd, ok := d.Queue.(QueueDepth); ok {
		s.depth = qd
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "complaints-extractor",
		BodyLimit:             d.MaxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(s.requestLogger)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)
	s.app.Post("/upload", s.upload)
	s.app.Get("/jobs", s.listJobs)
	s.app.Get("/jobs/export", s.exportJobs)
	s.app.Get("/status/:id", s.status)
	s.app.Get("/download/:id", s.download)
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestLogger ensures a request id and logs one line per request.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	reqID := c.Get(fiber.HeaderXRequestID)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	c.Locals("request_id", reqID)
	c.Set(fiber.HeaderXRequestID, reqID)
	c.SetUserContext(common.WithRequestID(c.UserContext(), reqID))

	err := c.Next()
	if err != nil {
		// let the error handler set the status before logging it
		if herr := s.errorHandler(c, err); herr != nil {
			return herr
		}
	}

	s.logger.Info("request",
		"request_id", reqID,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := common.ErrInternal.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	case errors.Is(err, common.ErrNotFound):
		code, msg = fiber.StatusNotFound, "not found"
	case common.IsValidationError(err), errors.Is(err, common.ErrInvalidInput):
		code, msg = fiber.StatusBadRequest, err.Error()
	default:
		s.logger.Error("http.unhandled_error", "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(errorResponse{Error: msg, Code: common.ErrorCode(err)})
}
