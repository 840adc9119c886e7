package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmylchreest/apiforge/internal/models"
)

// ExtractInput mirrors EndpointInput for the file-extraction pipeline:
// caller-specified fields are authoritative over LLM output.
type ExtractInput struct {
	URLHost             string
	URLPath             string
	Method              models.Method
	Headers             map[string]string
	QueryParams         map[string]string
	Body                string
	Authentication      models.AuthType
	DataPath            string
	Instruction         string
	DocumentationURL    string
	DecompressionMethod models.DecompressionMethod
	FileType            models.FileType
	ResponseSchema      map[string]any
	ResponseMapping     string
}

const maxExtractSampleChars = 20_000

// maxExtractRetries is the Extract repair-loop cap, equal to the Endpoint
// Synthesizer's global cap. Nothing in this package reads it; the loop
// lives in internal/fileextract, which applies its own maxRepairAttempts.
const maxExtractRetries = 5

// ExtractSynthesizer implements the Extract Synthesizer: the Endpoint
// Synthesizer's counterpart for file-based sources, prompting with a byte
// sample of the source plus documentation fetched from DocumentationURL
// when one is given.
type ExtractSynthesizer struct {
	LLM  Completer
	Docs DocFetcher
}

// PrepareExtract runs one synthesis attempt, analogous to
// EndpointSynthesizer.PrepareEndpoint. sample is a byte sample of the
// (decompressed) source content, truncated by the caller or here to
// maxExtractSampleChars.
func (s *ExtractSynthesizer) PrepareExtract(ctx context.Context, input ExtractInput, sample string, credentials map[string]any, lastErr error, priorMessages []models.Turn, retryCount int) (*models.ExtractConfig, []models.Turn, error) {
	messages := append([]models.Turn(nil), priorMessages...)

	if len(messages) == 0 {
		docs := ""
		if s.Docs != nil && input.DocumentationURL != "" {
			docs = truncate(s.Docs.Fetch(ctx, input.DocumentationURL, nil, nil), maxDocChars)
		}
		messages = append(messages, sysTurn(extractSystemPrompt()))
		messages = append(messages, userTurn(extractUserPrompt(input, truncate(sample, maxExtractSampleChars), docs)))
	} else if lastErr != nil {
		messages = append(messages, userTurn(fmt.Sprintf(
			"The previous configuration failed with the following error. Revise the configuration to fix it.\n\nError: %s",
			truncate(lastErr.Error(), 4000),
		)))
	}

	model := s.LLM.DefaultModel()
	temperature := retryTemperature(model, retryCount, s.LLM.IsReasoningModel)

	completion, _, err := s.LLM.Complete(ctx, messages, extractConfigResponseSchema(), model, temperature)
	if err != nil {
		return nil, messages, fmt.Errorf("synth: extract synthesis: %w", err)
	}
	messages = append(messages, assistTurn(completion))

	var draft extractConfigDraft
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(completion)), &draft); err != nil {
		return nil, messages, fmt.Errorf("synth: parsing extract config: %w", err)
	}

	cfg := draft.toExtractConfig()

	if input.URLHost != "" {
		cfg.URLHost = input.URLHost
	}
	if input.URLPath != "" {
		cfg.URLPath = input.URLPath
	}
	if input.Method != "" {
		cfg.Method = input.Method
	}
	if input.Authentication != "" {
		cfg.Authentication = input.Authentication
	}
	if input.DataPath != "" {
		cfg.DataPath = input.DataPath
	}
	if input.DocumentationURL != "" {
		cfg.DocumentationURL = input.DocumentationURL
	}
	if input.DecompressionMethod != "" {
		cfg.DecompressionMethod = input.DecompressionMethod
	}
	if input.FileType != "" {
		cfg.FileType = input.FileType
	}
	if input.ResponseSchema != nil {
		cfg.ResponseSchema = input.ResponseSchema
	}
	if input.ResponseMapping != "" {
		cfg.ResponseMapping = input.ResponseMapping
	}
	if input.Headers != nil {
		cfg.Headers = mergeMaps(cfg.Headers, input.Headers)
	}
	if input.QueryParams != nil {
		cfg.QueryParams = mergeMaps(cfg.QueryParams, input.QueryParams)
	}
	if input.Body != "" {
		cfg.Body = input.Body
	}
	cfg.Instruction = input.Instruction

	now := time.Now()
	payload := map[string]any{"sample": sample}
	cfg.ID = ExtractCacheKey(input, payload)
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	return cfg, messages, nil
}

// extractIdentity mirrors endpointIdentity for the file-extraction
// pipeline: every caller-specifiable field except responseSchema/
// responseMapping.
func extractIdentity(input ExtractInput) map[string]any {
	return map[string]any{
		"instruction":         input.Instruction,
		"urlHost":             input.URLHost,
		"urlPath":             input.URLPath,
		"method":              input.Method,
		"headers":             input.Headers,
		"queryParams":         input.QueryParams,
		"body":                input.Body,
		"authentication":      input.Authentication,
		"dataPath":            input.DataPath,
		"documentationUrl":    input.DocumentationURL,
		"decompressionMethod": input.DecompressionMethod,
		"fileType":            input.FileType,
	}
}

// ExtractCacheKey computes the stable cache id for input against
// payload, mirroring EndpointCacheKey.
func ExtractCacheKey(input ExtractInput, payload map[string]any) string {
	return canonicalID(extractIdentity(input), payload)
}

type extractConfigDraft struct {
	URLHost             string                     `json:"urlHost"`
	URLPath             string                     `json:"urlPath"`
	Method              models.Method              `json:"method"`
	Headers             map[string]string          `json:"headers"`
	QueryParams         map[string]string          `json:"queryParams"`
	Body                string                     `json:"body"`
	Authentication      models.AuthType            `json:"authentication"`
	DataPath            string                     `json:"dataPath"`
	DecompressionMethod models.DecompressionMethod `json:"decompressionMethod"`
	FileType            models.FileType            `json:"fileType"`
	ResponseSchema      map[string]any             `json:"responseSchema"`
	ResponseMapping     string                     `json:"responseMapping"`
}

func (d extractConfigDraft) toExtractConfig() *models.ExtractConfig {
	return &models.ExtractConfig{
		URLHost:             d.URLHost,
		URLPath:             d.URLPath,
		Method:              d.Method,
		Headers:             d.Headers,
		QueryParams:         d.QueryParams,
		Body:                d.Body,
		Authentication:      d.Authentication,
		DataPath:            d.DataPath,
		DecompressionMethod: d.DecompressionMethod,
		FileType:            d.FileType,
		ResponseSchema:      d.ResponseSchema,
		ResponseMapping:     d.ResponseMapping,
	}
}

func extractSystemPrompt() string {
	return `You are a file-extraction assistant. Given a natural-language instruction describing where to retrieve a data file from and a sample of its (decompressed) content, produce a JSON object describing how to fetch and parse it.

Output strictly this JSON shape (no prose, no markdown fence):
{
  "urlHost": string,
  "urlPath": string,
  "method": "GET"|"POST"|"PUT"|"DELETE"|"PATCH"|"HEAD"|"OPTIONS",
  "headers": {string: string},
  "queryParams": {string: string},
  "body": string,
  "authentication": "NONE"|"HEADER"|"QUERY_PARAM"|"OAUTH2",
  "dataPath": string,
  "decompressionMethod": "GZIP"|"DEFLATE"|"ZIP"|"AUTO"|"NONE",
  "fileType": "CSV"|"JSON"|"XML"|"AUTO",
  "responseSchema": object | null,
  "responseMapping": string | null
}`
}

func extractUserPrompt(input ExtractInput, sample, docs string) string {
	return fmt.Sprintf(`Instruction: %s

Base URL: %s

Content sample:
%s

Documentation:
%s`,
		input.Instruction, input.URLHost, sample, docs)
}

func extractConfigResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"urlHost":             map[string]any{"type": "string"},
			"urlPath":             map[string]any{"type": "string"},
			"method":              map[string]any{"type": "string"},
			"headers":             map[string]any{"type": "object"},
			"queryParams":         map[string]any{"type": "object"},
			"body":                map[string]any{"type": "string"},
			"authentication":      map[string]any{"type": "string"},
			"dataPath":            map[string]any{"type": "string"},
			"decompressionMethod": map[string]any{"type": "string"},
			"fileType":            map[string]any{"type": "string"},
			"responseSchema":      map[string]any{"type": "object"},
			"responseMapping":     map[string]any{"type": "string"},
		},
		"required": []any{"urlHost", "method", "fileType"},
	}
}
