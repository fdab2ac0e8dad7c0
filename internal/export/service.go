// Package export renders job history as XLSX reports.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/complaints-extractor/constants"
	"github.com/joseph-ayodele/complaints-extractor/internal/repository"
)

const sheet = "Jobs"

// Service is a thin façade over the job repository that produces XLSX bytes.
type Service struct {
	jobs   repository.ProcessedFileRepository
	logger *slog.Logger
}

func NewService(jobs repository.ProcessedFileRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// JobsXLSX returns a workbook listing the newest jobs, at most limit rows.
// A non-empty status keeps only jobs in that state.
func (s *Service) JobsXLSX(ctx context.Context, limit int, status constants.JobStatus) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"ID",
		"Arquivo",
		"Status",
		"Arquivo Processado",
		"Task ID",
		"Erro",
		"Criado em",
		"Atualizado em",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		if status != "" && j.Status != status {
			continue
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, j.ID.String())
		write(2, j.FileName)
		write(3, string(j.Status))
		write(4, deref(j.OutputFileName))
		write(5, deref(j.TaskID))
		write(6, truncate(deref(j.ErrorMessage), 140))
		write(7, j.CreatedAt.UTC().Format(time.RFC3339))
		write(8, j.UpdatedAt.UTC().Format(time.RFC3339))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "C", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 40)
	_ = f.SetColWidth(sheet, "E", "E", 38)
	_ = f.SetColWidth(sheet, "F", "F", 60) // error
	_ = f.SetColWidth(sheet, "G", "H", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"status", string(status),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
