package gemini

import (
	"google.golang.org/genai"

	"github.com/joseph-ayodele/complaints-extractor/internal/llm"
)

// Config for the Gemini generator. With UseVertexAI the client authenticates
// through Application Default Credentials; otherwise APIKey is required.
//
// Model.Timeout is not applied here: llm.Client bounds each call.
type Config struct {
	APIKey      string
	UseVertexAI bool
	Project     string
	Location    string
	BaseURL     string // optional endpoint override, e.g. a proxy
	Model       llm.ModelConfig
}

func (c Config) clientConfig() *genai.ClientConfig {
	httpOpts := genai.HTTPOptions{BaseURL: c.BaseURL}
	if c.UseVertexAI {
		location := c.Location
		if location == "" {
			location = "us-east1"
		}
		return &genai.ClientConfig{
			Backend:     genai.BackendVertexAI,
			Project:     c.Project,
			Location:    location,
			HTTPOptions: httpOpts,
		}
	}
	return &genai.ClientConfig{
		APIKey:      c.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	}
}

// BuildGenerateContentConfig maps the provider-neutral model settings onto genai.
func BuildGenerateContentConfig(mc llm.ModelConfig) *genai.GenerateContentConfig {
	safety := make([]*genai.SafetySetting, 0, len(mc.SafetyCategories))
	for _, category := range mc.SafetyCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  genai.HarmCategory(category),
			Threshold: genai.HarmBlockThreshold(mc.SafetyThreshold),
		})
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(mc.Temperature),
		TopP:            genai.Ptr(mc.TopP),
		Seed:            genai.Ptr(mc.Seed),
		MaxOutputTokens: mc.MaxOutputTokens,
		SafetySettings:  safety,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(mc.ThinkingBudget),
		},
	}
	if mc.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(mc.SystemInstruction)},
		}
	}
	return cfg
}
