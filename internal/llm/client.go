package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/complaints-extractor/constants"
)

// Client implements FieldExtractor on top of a streaming Generator: it joins
// the streamed chunks, strips Markdown fences and decodes the JSON reply.
type Client struct {
	gen     Generator
	timeout time.Duration
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

// NewClient wires a Generator with a per-call timeout.
func NewClient(gen Generator, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if gen == nil {
		return nil, fmt.Errorf("llm client: generator is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(BuildComplaintJSONSchema(constants.FieldsAsStringSlice()))
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return &Client{gen: gen, timeout: timeout, schema: schema, logger: logger}, nil
}

// ExtractFields makes exactly one model call for text. Every failure is
// returned as *ExtractionError.
func (c *Client) ExtractFields(ctx context.Context, text string) (ComplaintFields, error) {
	rid := uuid.New().String()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("llm.extract.start", "req_id", rid, "text_len", len(text))

	var b strings.Builder
	chunks := 0
	for chunk, err := range c.gen.Generate(ctx, text) {
		if err != nil {
			return nil, c.fail(rid, start, "llm.extract.stream_error", err)
		}
		chunks++
		b.WriteString(chunk)
	}
	if err := ctx.Err(); err != nil {
		return nil, c.fail(rid, start, "llm.extract.timeout", err)
	}
	if chunks == 0 {
		return nil, c.fail(rid, start, "llm.extract.no_response", ErrNoResponse)
	}

	cleaned := StripCodeFences(b.String())
	if cleaned == "" {
		return nil, c.fail(rid, start, "llm.extract.empty", ErrEmptyResponse)
	}

	fields, doc, err := DecodeFields(cleaned)
	if err != nil {
		c.logger.Debug("llm.extract.raw_reply", "req_id", rid, "content", cleaned)
		return nil, c.fail(rid, start, "llm.extract.decode_error", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return nil, c.fail(rid, start, "llm.extract.schema_validation_failed", fmt.Errorf("json does not match schema: %w", err))
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"chunks", chunks,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}

func (c *Client) fail(rid string, start time.Time, event string, err error) error {
	c.logger.Warn(event,
		"req_id", rid,
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &ExtractionError{Cause: err}
}
