package core

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrJobTerminal   = errors.New("job already finished")
	ErrMissingColumn = errors.New("missing column")
)

// MissingColumnError names the required column absent from the input sheet.
type MissingColumnError struct {
	Column string
	Sheet  string
}

func (e *MissingColumnError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("column %q not found in sheet %q", e.Column, e.Sheet)
	}
	return fmt.Sprintf("column %q not found", e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
