package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmylchreest/apiforge/internal/models"
)

// EndpointInput carries the caller's instruction plus any fields they
// pre-specified; pre-specified fields win over whatever the LLM
// proposes for the same field.
type EndpointInput struct {
	URLHost          string
	URLPath          string
	Method           models.Method
	Headers          map[string]string
	QueryParams      map[string]string
	Body             string
	Authentication   models.AuthType
	Pagination       *models.Pagination
	DataPath         string
	Instruction      string
	DocumentationURL string
	ResponseSchema   map[string]any
	ResponseMapping  string
}

// EndpointSynthesizer implements the Endpoint Synthesizer (spec 4.6): an
// LLM loop producing an ApiConfig for an instruction, with
// error-feedback iteration driven by the caller (internal/executor).
type EndpointSynthesizer struct {
	LLM  Completer
	Docs DocFetcher
}

const maxDocChars = 80_000

// PrepareEndpoint runs one synthesis attempt. When priorMessages is
// empty this seeds a fresh conversation; otherwise lastErr is appended
// as repair context atop the existing message log. The caller
// (internal/executor) is responsible for re-invoking this with a new
// lastErr on HTTP failure, bounded by a global retry cap.
func (s *EndpointSynthesizer) PrepareEndpoint(ctx context.Context, input EndpointInput, payload, credentials map[string]any, lastErr error, priorMessages []models.Turn, retryCount int) (*models.ApiConfig, []models.Turn, error) {
	messages := append([]models.Turn(nil), priorMessages...)

	if len(messages) == 0 {
		docURL := input.DocumentationURL
		if docURL == "" {
			docURL = input.URLHost
		}
		docs := ""
		if s.Docs != nil {
			docs = truncate(s.Docs.Fetch(ctx, docURL, nil, nil), maxDocChars)
		}

		messages = append(messages, sysTurn(endpointSystemPrompt()))
		messages = append(messages, userTurn(endpointUserPrompt(input, availableVars(payload, credentials), docs)))
	} else if lastErr != nil {
		messages = append(messages, userTurn(fmt.Sprintf(
			"The previous configuration failed with the following error. Revise the configuration to fix it.\n\nError: %s",
			truncate(lastErr.Error(), 4000),
		)))
	}

	model := s.LLM.DefaultModel()
	temperature := retryTemperature(model, retryCount, s.LLM.IsReasoningModel)

	completion, _, err := s.LLM.Complete(ctx, messages, apiConfigResponseSchema(), model, temperature)
	if err != nil {
		return nil, messages, fmt.Errorf("synth: endpoint synthesis: %w", err)
	}
	messages = append(messages, assistTurn(completion))

	var draft apiConfigDraft
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(completion)), &draft); err != nil {
		return nil, messages, fmt.Errorf("synth: parsing endpoint config: %w", err)
	}

	cfg := draft.toApiConfig()

	// Preserve caller-specified fields; LLM output is used only as a
	// fallback for fields the caller left unset.
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
	if input.Pagination != nil {
		cfg.Pagination = input.Pagination
	}
	if input.DataPath != "" {
		cfg.DataPath = input.DataPath
	}
	if input.DocumentationURL != "" {
		cfg.DocumentationURL = input.DocumentationURL
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
	cfg.ID = EndpointCacheKey(input, payload)
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	return cfg, messages, nil
}

// endpointIdentity extracts the request-defining fields of input that
// establish cache identity: everything the caller can pre-specify
// except responseSchema/responseMapping, which shape the output and
// may legitimately vary call-to-call against the same endpoint.
func endpointIdentity(input EndpointInput) map[string]any {
	return map[string]any{
		"instruction":      input.Instruction,
		"urlHost":          input.URLHost,
		"urlPath":          input.URLPath,
		"method":           input.Method,
		"headers":          input.Headers,
		"queryParams":      input.QueryParams,
		"body":             input.Body,
		"authentication":   input.Authentication,
		"pagination":       input.Pagination,
		"dataPath":         input.DataPath,
		"documentationUrl": input.DocumentationURL,
	}
}

// EndpointCacheKey computes the stable cache id for input against
// payload. Exported so the REST boundary can compute the same key
// before synthesis runs, to honor CacheMode on a read.
func EndpointCacheKey(input EndpointInput, payload map[string]any) string {
	return canonicalID(endpointIdentity(input), payload)
}

func mergeMaps(llm, caller map[string]string) map[string]string {
	out := make(map[string]string, len(llm)+len(caller))
	for k, v := range llm {
		out[k] = v
	}
	for k, v := range caller {
		out[k] = v
	}
	return out
}

// apiConfigDraft is the LLM's proposed ApiConfig shape before
// caller-specified overrides are applied and before ID/timestamps are
// assigned.
type apiConfigDraft struct {
	URLHost         string            `json:"urlHost"`
	URLPath         string            `json:"urlPath"`
	Method          models.Method     `json:"method"`
	Headers         map[string]string `json:"headers"`
	QueryParams     map[string]string `json:"queryParams"`
	Body            string            `json:"body"`
	Authentication  models.AuthType   `json:"authentication"`
	Pagination      *models.Pagination `json:"pagination"`
	DataPath        string            `json:"dataPath"`
	ResponseSchema  map[string]any    `json:"responseSchema"`
	ResponseMapping string            `json:"responseMapping"`
}

func (d apiConfigDraft) toApiConfig() *models.ApiConfig {
	return &models.ApiConfig{
		URLHost:         d.URLHost,
		URLPath:         d.URLPath,
		Method:          d.Method,
		Headers:         d.Headers,
		QueryParams:     d.QueryParams,
		Body:            d.Body,
		Authentication:  d.Authentication,
		Pagination:      d.Pagination,
		DataPath:        d.DataPath,
		ResponseSchema:  d.ResponseSchema,
		ResponseMapping: d.ResponseMapping,
	}
}

func endpointSystemPrompt() string {
	return `You are an API integration assistant. Given a natural-language instruction describing an HTTP API call, documentation text, and a set of available variable names, produce a JSON object describing exactly how to make the call.

Output strictly this JSON shape (no prose, no markdown fence):
{
  "urlHost": string,
  "urlPath": string,
  "method": "GET"|"POST"|"PUT"|"DELETE"|"PATCH"|"HEAD"|"OPTIONS",
  "headers": {string: string},
  "queryParams": {string: string},
  "body": string,
  "authentication": "NONE"|"HEADER"|"QUERY_PARAM"|"OAUTH2",
  "pagination": {"type": "OFFSET_BASED"|"PAGE_BASED"|"DISABLED", "pageSize": number} | null,
  "dataPath": string,
  "responseSchema": object | null,
  "responseMapping": string | null
}

Use {name} placeholders in headers/queryParams/body/urlPath for any value that should come from the available variables. Only reference variable names you were given; do not invent credentials.`
}

func endpointUserPrompt(input EndpointInput, vars []string, docs string) string {
	return fmt.Sprintf(`Instruction: %s

Base URL: %s

User-specified fields (authoritative, fill in only what's missing):
- method: %s
- headers: %s
- queryParams: %s
- body: %s
- authentication: %s
- dataPath: %s
- pagination: %s

Available variables: %v

Documentation:
%s`,
		input.Instruction,
		input.URLHost,
		input.Method,
		toJSON(input.Headers),
		toJSON(input.QueryParams),
		input.Body,
		input.Authentication,
		input.DataPath,
		toJSON(input.Pagination),
		vars,
		docs,
	)
}

// apiConfigResponseSchema is the JSON Schema constraining the LLM's
// completion, matching apiConfigDraft's shape.
func apiConfigResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"urlHost":         map[string]any{"type": "string"},
			"urlPath":         map[string]any{"type": "string"},
			"method":          map[string]any{"type": "string"},
			"headers":         map[string]any{"type": "object"},
			"queryParams":     map[string]any{"type": "object"},
			"body":            map[string]any{"type": "string"},
			"authentication":  map[string]any{"type": "string"},
			"pagination":      map[string]any{"type": "object"},
			"dataPath":        map[string]any{"type": "string"},
			"responseSchema":  map[string]any{"type": "object"},
			"responseMapping": map[string]any{"type": "string"},
		},
		"required": []any{"urlHost", "method"},
	}
}
