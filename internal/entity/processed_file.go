package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/complaints-extractor/constants"
)

// ErrInvalidTransition is returned when a mutator would break the job lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// ProcessedFile is the job record for one uploaded workbook.
// OutputFileName is set exactly when Status is COMPLETED.
type ProcessedFile struct {
	ID             uuid.UUID           `json:"id"`
	FileName       string              `json:"file_name"`
	Status         constants.JobStatus `json:"status"`
	OutputFileName *string             `json:"output_file_name,omitempty"`
	TaskID         *string             `json:"task_id,omitempty"`
	ErrorMessage   *string             `json:"error_message,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewProcessedFile returns a PENDING record for the stored input name.
func NewProcessedFile(fileName string) *ProcessedFile {
	now := time.Now().UTC()
	return &ProcessedFile{
		ID:        uuid.New(),
		FileName:  fileName,
		Status:    constants.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *ProcessedFile) MarkInProgress() error {
	if err := p.transition(constants.JobStatusInProgress); err != nil {
		return err
	}
	p.OutputFileName = nil
	p.ErrorMessage = nil
	return nil
}

func (p *ProcessedFile) MarkCompleted(outputName string) error {
	if outputName == "" {
		return fmt.Errorf("mark completed: output file name is required")
	}
	if err := p.transition(constants.JobStatusCompleted); err != nil {
		return err
	}
	p.OutputFileName = &outputName
	p.ErrorMessage = nil
	return nil
}

func (p *ProcessedFile) MarkFailed(msg string) error {
	if err := p.transition(constants.JobStatusFailed); err != nil {
		return err
	}
	p.OutputFileName = nil
	if msg != "" {
		p.ErrorMessage = &msg
	}
	return nil
}

func (p *ProcessedFile) transition(next constants.JobStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IsDownloadable reports whether the output workbook should exist.
func (p *ProcessedFile) IsDownloadable() bool {
	return p.Status == constants.JobStatusCompleted && p.OutputFileName != nil
}
