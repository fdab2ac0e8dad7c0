package llm

import (
	"context"
	"errors"
	"iter"
)

// ComplaintFields is the decoded model reply for one complaint. Keys are the
// constants.Field values; each value is a scalar (json.Number or string), a
// list, a nested object, or nil when the model reported the field as absent.
type ComplaintFields map[string]any

// FieldExtractor is the interface the batch processor depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (ComplaintFields, error)
}

// Generator streams the model's textual reply for one complaint. The returned
// sequence is finite and is consumed at most once; every call starts a fresh request.
type Generator interface {
	Generate(ctx context.Context, text string) iter.Seq2[string, error]
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, text string) iter.Seq2[string, error]

func (f GeneratorFunc) Generate(ctx context.Context, text string) iter.Seq2[string, error] {
	return f(ctx, text)
}

var (
	ErrNoResponse    = errors.New("no response from model")
	ErrEmptyResponse = errors.New("empty response after cleaning")
)

// ExtractionError wraps any failure of a single extraction call.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Cause.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
