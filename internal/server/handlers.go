package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/common"
	"github.com/joseph-ayodele/complaints-extractor/internal/entity"
	"github.com/joseph-ayodele/complaints-extractor/internal/ingest"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
	"github.com/joseph-ayodele/complaints-extractor/internal/storage"
)

const uploadField = "documento"

type jobResponse struct {
	*entity.ProcessedFile
	DownloadURL string `json:"download_url,omitempty"`
}

func toJobResponse(pf *entity.ProcessedFile) jobResponse {
	out := jobResponse{ProcessedFile: pf}
	if pf.IsDownloadable() {
		out.DownloadURL = "/download/" + pf.ID.String()
	}
	return out
}

// upload hands the multipart workbook to the ingest service.
func (s *Server) upload(c *fiber.Ctx) error {
	ctx := c.UserContext()

	fh, err := c.FormFile(uploadField)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("multipart field %q is required", uploadField))
	}
	src, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read upload")
	}
	defer func() { _ = src.Close() }()

	pf, err := s.ingest.Submit(ctx, fh.Filename, src)
	switch {
	case errors.Is(err, storage.ErrUnsupportedContent):
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "file is not an xlsx workbook")
	case errors.Is(err, storage.ErrInvalidName):
		return fiber.NewError(fiber.StatusBadRequest, "invalid file name")
	case errors.Is(err, ingest.ErrDispatch):
		return fiber.NewError(fiber.StatusServiceUnavailable, "could not dispatch processing task")
	case err != nil:
		return err
	}
	taskID := ""
	if pf.TaskID != nil {
		taskID = *pf.TaskID
	}

	s.logger.Info("upload.accepted", "job_id", pf.ID, "file_name", pf.FileName, "task_id", taskID, "bytes", fh.Size)
	c.Location("/status/" + pf.ID.String())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":        pf.ID,
		"file_name": pf.FileName,
		"status":    pf.Status,
		"task_id":   taskID,
	})
}

func (s *Server) status(c *fiber.Ctx) error {
	pf, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(toJobResponse(pf))
}

func (s *Server) listJobs(c *fiber.Ctx) error {
	items, err := s.jobs.List(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	out := make([]jobResponse, 0, len(items))
	for _, pf := range items {
		out = append(out, toJobResponse(pf))
	}
	return c.JSON(fiber.Map{"jobs": out})
}

// exportJobs returns the job history as a workbook attachment.
func (s *Server) exportJobs(c *fiber.Ctx) error {
	status := constants.JobStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
	}
	buf, err := s.export.JobsXLSX(c.UserContext(), c.QueryInt("limit", 500), status)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, constants.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=jobs.xlsx")
	return c.Send(buf)
}

// download serves the processed workbook once the job has completed.
func (s *Server) download(c *fiber.Ctx) error {
	pf, err := s.lookup(c)
	if err != nil {
		return err
	}
	if !pf.IsDownloadable() || !s.media.Exists(*pf.OutputFileName) {
		return fiber.NewError(fiber.StatusNotFound, "output not available")
	}

	f, err := s.media.Open(*pf.OutputFileName)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	c.Set(fiber.HeaderContentType, constants.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, "inline; filename="+*pf.OutputFileName)
	return c.SendStream(f, int(info.Size()))
}

func (s *Server) lookup(c *fiber.Ctx) (*entity.ProcessedFile, error) {
	raw := c.Params("id")
	if err := common.NewValidator().Field("id", raw, common.UUID).Error(); err != nil {
		return nil, err
	}
	id := uuid.MustParse(raw)
	pf, err := s.jobs.GetByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "job not found")
	}
	return pf, err
}

func (s *Server) health(c *fiber.Ctx) error {
	if c.Query("deep") != "true" {
		return c.JSON(fiber.Map{"status": "ok"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if s.db != nil {
		dbStatus = "ok"
		if err := s.db.HealthCheck(ctx, 0, s.logger); err != nil {
			dbStatus = "error"
		}
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		}
	}

	status, code := "ok", fiber.StatusOK
	if dbStatus == "error" || redisStatus == "error" {
		status, code = "error", fiber.StatusServiceUnavailable
	}
	body := fiber.Map{
		"status": status,
		"db":     dbStatus,
		"redis":  redisStatus,
	}
	if s.depth != nil {
		if n, err := s.depth.Len(ctx); err == nil {
			body["queue_depth"] = n
		}
	}
	return c.Status(code).JSON(body)
}
