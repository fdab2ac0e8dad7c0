package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildComplaintJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It only pins the reply's shape: an object whose known fields hold any JSON
// value, null included. Missing fields are not rejected here.
func BuildComplaintJSONSchema(keys []string) map[string]any {
	props := make(map[string]any, len(keys))
	for _, k := range keys {
		props[k] = fieldProp()
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func fieldProp() map[string]any {
	return map[string]any{
		"type": []string{"string", "number", "boolean", "array", "object", "null"},
	}
}

// CompileSchema compiles a schema map once for repeated validation.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
