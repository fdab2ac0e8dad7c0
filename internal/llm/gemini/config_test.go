package gemini

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/complaints-extractor/internal/llm"
)

func TestBuildGenerateContentConfig(t *testing.T) {
	mc, err := llm.DefaultModelConfig()
	require.NoError(t, err)

	cfg := BuildGenerateContentConfig(mc)

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 1.0, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.95, *cfg.TopP, 1e-6)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int32(42), *cfg.Seed)
	assert.Equal(t, int32(65535), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int32(0), *cfg.ThinkingConfig.ThinkingBudget)

	require.Len(t, cfg.SafetySettings, 4)
	for _, s := range cfg.SafetySettings {
		assert.Equal(t, genai.HarmBlockThreshold("OFF"), s.Threshold)
	}
	assert.Equal(t, genai.HarmCategory("HARM_CATEGORY_HATE_SPEECH"), cfg.SafetySettings[0].Category)

	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.SystemInstruction.Parts, 1)
	assert.Contains(t, cfg.SystemInstruction.Parts[0].Text, "reclamações sobre telecomunicações")
}

func TestClientConfigBackend(t *testing.T) {
	vertex := Config{UseVertexAI: true, Project: "complaints-ingestion"}.clientConfig()
	assert.Equal(t, genai.BackendVertexAI, vertex.Backend)
	assert.Equal(t, "us-east1", vertex.Location)

	api := Config{APIKey: "k", Model: llm.ModelConfig{Timeout: time.Second}}.clientConfig()
	assert.Equal(t, genai.BackendGeminiAPI, api.Backend)
	assert.Equal(t, "k", api.APIKey)
}
