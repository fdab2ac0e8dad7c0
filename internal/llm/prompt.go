package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/tyler-sommer/stick"

	"github.com/joseph-ayodele/complaints-extractor/constants"
)

//go:embed prompts/system_instruction.twig
var systemInstructionTemplate string

// HarmCategories are the safety categories relaxed for complaint text, which
// routinely quotes abusive or distressing content.
var HarmCategories = []string{
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_HARASSMENT",
}

// ModelConfig is everything needed to invoke the extraction model. It is
// built once per process and handed to the provider client explicitly.
type ModelConfig struct {
	Model             string
	SystemInstruction string
	Temperature       float32
	TopP              float32
	Seed              int32
	MaxOutputTokens   int32
	ThinkingBudget    int32
	SafetyCategories  []string
	SafetyThreshold   string
	Timeout           time.Duration // per call, enforced by Client rather than the provider
}

// DefaultModelConfig returns the production generation parameters with the
// rendered system instruction.
func DefaultModelConfig() (ModelConfig, error) {
	si, err := BuildSystemInstruction(constants.FieldsAsStringSlice())
	if err != nil {
		return ModelConfig{}, err
	}
	return ModelConfig{
		Model:             "gemini-2.5-flash",
		SystemInstruction: si,
		Temperature:       1.0,
		TopP:              0.95,
		Seed:              42,
		MaxOutputTokens:   65535,
		ThinkingBudget:    0,
		SafetyCategories:  HarmCategories,
		SafetyThreshold:   "OFF",
		Timeout:           60 * time.Second,
	}, nil
}

// BuildSystemInstruction renders the extraction instruction for the given JSON keys.
func BuildSystemInstruction(keys []string) (string, error) {
	if len(keys) == 0 {
		return "", fmt.Errorf("system instruction: no keys")
	}
	env := stick.New(nil)
	var out strings.Builder
	err := env.Execute(systemInstructionTemplate, &out, map[string]stick.Value{
		"KeyList": keyList(keys),
	})
	if err != nil {
		return "", fmt.Errorf("system instruction: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}

// keyList renders 'a', 'b' e 'c'.
func keyList(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " e " + quoted[len(quoted)-1]
}
