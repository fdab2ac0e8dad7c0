package gemini

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"
)

// Generator implements llm.Generator with Models.GenerateContentStream.
type Generator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	logger *slog.Logger
}

func NewGenerator(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	logger.Info("gemini generator initialized",
		"model", cfg.Model.Model,
		"vertexai", cfg.UseVertexAI,
		"project", cfg.Project,
		"location", cfg.Location,
	)
	return &Generator{
		client: client,
		model:  cfg.Model.Model,
		config: BuildGenerateContentConfig(cfg.Model),
		logger: logger,
	}, nil
}

// Generate streams the reply text for one complaint, chunk by chunk, in arrival order.
func (g *Generator) Generate(ctx context.Context, text string) iter.Seq2[string, error] {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, g.config) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}
