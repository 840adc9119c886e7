package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmylchreest/apiforge/internal/jsonata"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/store"
)

// maxTransformRetries bounds the Transform Synthesizer's own internal
// repair loop (distinct from the Endpoint Synthesizer, whose retries are
// driven by the caller across HTTP attempts).
const maxTransformRetries = 5

// maxTransformSampleChars bounds the data sample embedded in the prompt.
const maxTransformSampleChars = 10_000

// maxTransformSampleElements caps how many array elements are kept per
// array when building the sample, to avoid flooding the prompt with a
// single huge collection.
const maxTransformSampleElements = 5

// TransformSynthesizer implements the Transform Synthesizer (spec 4.8):
// given raw response data and a target schema, produce a responseMapping
// JSONata expression that reshapes the data to match, validating and
// self-repairing internally.
type TransformSynthesizer struct {
	LLM Completer
}

// transformIdentity extracts the fields of a transform request that
// establish cache identity: the instruction plus the target schema.
// responseMapping is deliberately excluded — it's the thing being
// computed, not part of what identifies the request.
func transformIdentity(instruction string, responseSchema map[string]any) map[string]any {
	return map[string]any{
		"instruction":    instruction,
		"responseSchema": responseSchema,
	}
}

// PrepareTransform produces a TransformConfig for data against
// responseSchema, following spec's prepareTransform algorithm: it
// returns (nil, nil) when responseSchema or data is empty (no
// transform needed); when fromCache, a cache hit in datastore is
// returned immediately (merged with this call's instruction/schema)
// without invoking the LLM or even consulting responseMapping; absent
// a hit, a caller-supplied responseMapping is applied as-is; otherwise
// the LLM generates and validates one with retry.
func (s *TransformSynthesizer) PrepareTransform(ctx context.Context, datastore store.Store, fromCache bool, instruction string, responseSchema map[string]any, responseMapping string, data any) (*models.TransformConfig, error) {
	if len(responseSchema) == 0 || data == nil {
		return nil, nil
	}

	now := time.Now()
	inferred := jsonata.InferSchema(data)
	id := canonicalID(transformIdentity(instruction, responseSchema), map[string]any{"schema": inferred})

	if fromCache && datastore != nil {
		if cached, err := datastore.GetTransformConfig(ctx, id); err == nil && cached != nil {
			cfg := &models.TransformConfig{
				Instruction:         instruction,
				ResponseSchema:      responseSchema,
				ResponseMapping:     cached.ResponseMapping,
				Confidence:          cached.Confidence,
				ConfidenceReasoning: cached.ConfidenceReasoning,
			}
			cfg.ID = id
			cfg.CreatedAt = cached.CreatedAt
			cfg.UpdatedAt = now
			return cfg, nil
		}
	}

	if responseMapping != "" {
		result := jsonata.ValidateAndApply(data, responseMapping, responseSchema)
		cfg := &models.TransformConfig{
			Instruction:     instruction,
			ResponseSchema:  responseSchema,
			ResponseMapping: responseMapping,
			Confidence:      100,
		}
		if !result.Success {
			cfg.Confidence = 0
			cfg.ConfidenceReasoning = result.Error
		}
		cfg.ID = id
		cfg.CreatedAt = now
		cfg.UpdatedAt = now
		return cfg, nil
	}

	sample := sampleForPrompt(data)
	messages := []models.Turn{
		sysTurn(transformSystemPrompt()),
		userTurn(transformUserPrompt(instruction, responseSchema, inferred, sample)),
	}

	model := s.LLM.DefaultModel()

	var lastErr string
	for attempt := 0; attempt < maxTransformRetries; attempt++ {
		if lastErr != "" {
			messages = append(messages, userTurn(fmt.Sprintf(
				"That mapping failed. Error: %s\n\nProduce a corrected JSONata expression.",
				truncate(lastErr, 2000),
			)))
		}

		temperature := retryTemperature(model, attempt, s.LLM.IsReasoningModel)
		completion, _, err := s.LLM.Complete(ctx, messages, transformResponseSchema(), model, temperature)
		if err != nil {
			lastErr = err.Error()
			continue
		}
		messages = append(messages, assistTurn(completion))

		mapping, confidence, reasoning, perr := parseTransformCompletion(completion)
		if perr != nil {
			lastErr = perr.Error()
			continue
		}

		result := jsonata.ValidateAndApply(data, mapping, responseSchema)
		if !result.Success {
			lastErr = result.Error
			continue
		}

		cfg := &models.TransformConfig{
			Instruction:         instruction,
			ResponseSchema:      responseSchema,
			ResponseMapping:     mapping,
			Confidence:          confidence,
			ConfidenceReasoning: reasoning,
		}
		cfg.ID = id
		cfg.CreatedAt = now
		cfg.UpdatedAt = now
		return cfg, nil
	}

	return nil, nil
}

func sampleForPrompt(data any) any {
	switch t := data.(type) {
	case []any:
		n := len(t)
		if n > maxTransformSampleElements {
			n = maxTransformSampleElements
		}
		out := make([]any, n)
		for i := range out {
			out[i] = sampleForPrompt(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = sampleForPrompt(v)
		}
		return out
	default:
		return data
	}
}

type transformCompletion struct {
	ResponseMapping     string `json:"responseMapping"`
	Confidence          int    `json:"confidence"`
	ConfidenceReasoning string `json:"confidenceReasoning"`
}

func parseTransformCompletion(completion string) (string, int, string, error) {
	var tc transformCompletion
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(completion)), &tc); err != nil {
		return "", 0, "", err
	}
	if tc.ResponseMapping == "" {
		return "", 0, "", fmt.Errorf("synth: empty responseMapping in completion")
	}
	return tc.ResponseMapping, tc.Confidence, tc.ConfidenceReasoning, nil
}

func transformSystemPrompt() string {
	return `You are a data-mapping assistant. Given raw JSON data, its inferred shape, and a target JSON Schema, produce a JSONata expression that transforms the data to match the target schema.

Output strictly this JSON shape (no prose, no markdown fence):
{
  "responseMapping": string,
  "confidence": number,
  "confidenceReasoning": string
}

"responseMapping" must be a single valid JSONata expression. "confidence" is 0-100, your estimate of how well the mapping satisfies the target schema.`
}

func transformUserPrompt(instruction string, targetSchema, inferredSchema map[string]any, sample any) string {
	return fmt.Sprintf(`Instruction: %s

Target schema:
%s

Inferred shape of the input data:
%s

Sample data:
%s`,
		instruction, toJSON(targetSchema), toJSON(inferredSchema), truncate(toJSON(sample), maxTransformSampleChars))
}

func transformResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"responseMapping":     map[string]any{"type": "string"},
			"confidence":          map[string]any{"type": "number"},
			"confidenceReasoning": map[string]any{"type": "string"},
		},
		"required": []any{"responseMapping"},
	}
}
