package synth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmylchreest/apiforge/internal/models"
)

// maxSchemaGenRetries bounds the Schema Generator's internal repair
// loop.
const maxSchemaGenRetries = 3

// SchemaGenerator implements the Schema Generator (spec 4.9): given an
// instruction and a sample response, produce a JSON Schema describing
// the caller's expected output shape.
type SchemaGenerator struct {
	LLM Completer
}

// GenerateSchema runs the generator's internal retry loop, feeding
// parse failures back to the model as repair context.
func (s *SchemaGenerator) GenerateSchema(ctx context.Context, instruction string, sampleResponse string) (map[string]any, error) {
	messages := []models.Turn{
		sysTurn(schemaGenSystemPrompt()),
		userTurn(schemaGenUserPrompt(instruction, sampleResponse)),
	}

	model := s.LLM.SchemaModel()

	var lastErr error
	for attempt := 0; attempt < maxSchemaGenRetries; attempt++ {
		if lastErr != nil {
			messages = append(messages, userTurn(fmt.Sprintf(
				"That response was invalid. Error: %s\n\nProduce a corrected JSON Schema.", truncate(lastErr.Error(), 2000))))
		}

		temperature := retryTemperature(model, attempt, s.LLM.IsReasoningModel)
		completion, _, err := s.LLM.Complete(ctx, messages, schemaGenResponseSchema(), model, temperature)
		if err != nil {
			lastErr = err
			continue
		}
		messages = append(messages, assistTurn(completion))

		schema, perr := parseSchemaGenCompletion(completion)
		if perr != nil {
			lastErr = perr
			continue
		}
		return schema, nil
	}

	return nil, fmt.Errorf("synth: schema generation exhausted retries: %w", lastErr)
}

type schemaGenCompletion struct {
	JSONSchema map[string]any `json:"jsonSchema"`
}

func parseSchemaGenCompletion(completion string) (map[string]any, error) {
	stripped := stripMarkdownCodeBlock(completion)

	var wrapped schemaGenCompletion
	if err := json.Unmarshal([]byte(stripped), &wrapped); err == nil && wrapped.JSONSchema != nil {
		return wrapped.JSONSchema, nil
	}

	var bare map[string]any
	if err := json.Unmarshal([]byte(stripped), &bare); err != nil {
		return nil, fmt.Errorf("synth: parsing generated schema: %w", err)
	}
	return bare, nil
}

func schemaGenSystemPrompt() string {
	return `You are a JSON Schema generation assistant. Given a natural-language instruction describing what data the caller wants and a sample raw response, produce a JSON Schema describing the caller's desired output shape.

Output strictly this JSON shape (no prose, no markdown fence):
{
  "jsonSchema": <a valid JSON Schema document>
}`
}

func schemaGenUserPrompt(instruction, sampleResponse string) string {
	return fmt.Sprintf("Instruction: %s\n\nSample response:\n%s", instruction, truncate(sampleResponse, maxTransformSampleChars))
}

func schemaGenResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"jsonSchema": map[string]any{"type": "object"},
		},
		"required": []any{"jsonSchema"},
	}
}
