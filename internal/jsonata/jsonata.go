package jsonata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Apply parses and evaluates expr against value, returning the resulting
// JSON-compatible value.
func Apply(value any, expr string) (any, error) {
	root, err := parse(expr)
	if err != nil {
		return nil, fmt.Errorf("jsonata: parse error: %w", err)
	}
	result, err := evalNode(root, value, env{})
	if err != nil {
		return nil, fmt.Errorf("jsonata: evaluation error: %w", err)
	}
	return result, nil
}

// Result is the outcome of ValidateAndApply.
type Result struct {
	Success bool
	Data    any
	Error   string
}

// ValidateAndApply runs Apply then validates the result against schema
// (a JSON Schema document), reporting the first validation failure path.
func ValidateAndApply(value any, expr string, schema map[string]any) Result {
	data, err := Apply(value, expr)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	if len(schema) == 0 {
		return Result{Success: true, Data: data}
	}

	if err := ValidateAgainstSchema(data, schema); err != nil {
		return Result{Success: false, Data: data, Error: err.Error()}
	}
	return Result{Success: true, Data: data}
}

// ValidateAgainstSchema compiles schema (draft-07 semantics) and checks
// data against it, returning an error describing the first validation
// failure path on mismatch.
func ValidateAgainstSchema(data any, schema map[string]any) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("jsonata: invalid schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("jsonata: invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("jsonata: invalid schema: %w", err)
	}

	// jsonschema validates against Go-native JSON values (map/[]any,
	// float64/json.Number, string, bool, nil): round-trip through the
	// JSON encoder so our internally-produced values normalize.
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("jsonata: invalid data: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(dataBytes, &decoded); err != nil {
		return fmt.Errorf("jsonata: invalid data: %w", err)
	}

	if err := compiled.Validate(decoded); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			leaf := firstLeaf(verr)
			return fmt.Errorf("validation failed at %s: %s", leaf.InstanceLocation, leaf.Message)
		}
		return err
	}
	return nil
}

func firstLeaf(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return e
	}
	return firstLeaf(e.Causes[0])
}

// InferSchema builds a minimal JSON Schema describing the shape of v,
// using only the first element of arrays to determine item shape. Used
// by the Transform Synthesizer to guide the LLM and to key its cache.
func InferSchema(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		props := map[string]any{}
		for k, val := range t {
			props[k] = InferSchema(val)
		}
		return map[string]any{"type": "object", "properties": props}
	case []any:
		if len(t) == 0 {
			return map[string]any{"type": "array"}
		}
		return map[string]any{"type": "array", "items": InferSchema(t[0])}
	case string:
		return map[string]any{"type": "string"}
	case bool:
		return map[string]any{"type": "boolean"}
	case float64, int, int64:
		return map[string]any{"type": "number"}
	case nil:
		return map[string]any{"type": "null"}
	default:
		return map[string]any{}
	}
}
