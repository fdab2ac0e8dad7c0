package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StripCodeFences removes ```json / ``` markers anywhere in the reply and trims whitespace.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// DecodeFields parses a cleaned reply into ComplaintFields. Numbers are kept as
// json.Number so long phone numbers survive untouched. The raw decoded value is
// returned for schema validation.
func DecodeFields(cleaned string) (ComplaintFields, any, error) {
	v, err := decodeJSON(cleaned)
	if err != nil {
		return nil, nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, v, fmt.Errorf("decode reply: expected JSON object, got %T", v)
	}
	return ComplaintFields(m), v, nil
}

func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode reply: trailing data after JSON value")
	}
	return v, nil
}
