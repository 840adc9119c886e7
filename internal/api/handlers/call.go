// Package handlers implements the REST boundary's Huma operation
// handlers: thin adapters between wire-shaped request/response bodies
// and the core synthesis/execution pipeline.
package handlers

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/apiforge/internal/executor"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/store"
	"github.com/jmylchreest/apiforge/internal/synth"
)

// EndpointInputBody mirrors synth.EndpointInput with JSON tags for the
// wire. Fields left zero are filled in by the Endpoint Synthesizer.
type EndpointInputBody struct {
	URLHost          string              `json:"urlHost"`
	URLPath          string              `json:"urlPath,omitempty"`
	Method           string              `json:"method,omitempty"`
	Headers          map[string]string   `json:"headers,omitempty"`
	QueryParams      map[string]string   `json:"queryParams,omitempty"`
	Body             string              `json:"body,omitempty"`
	Authentication   string              `json:"authentication,omitempty"`
	Pagination       *models.Pagination  `json:"pagination,omitempty"`
	DataPath         string              `json:"dataPath,omitempty"`
	Instruction      string              `json:"instruction"`
	DocumentationURL string              `json:"documentationUrl,omitempty"`
	ResponseSchema   map[string]any      `json:"responseSchema,omitempty"`
	ResponseMapping  string              `json:"responseMapping,omitempty"`
}

func (b EndpointInputBody) toEndpointInput() synth.EndpointInput {
	return synth.EndpointInput{
		URLHost:          b.URLHost,
		URLPath:          b.URLPath,
		Method:           models.Method(b.Method),
		Headers:          b.Headers,
		QueryParams:      b.QueryParams,
		Body:             b.Body,
		Authentication:   models.AuthType(b.Authentication),
		Pagination:       b.Pagination,
		DataPath:         b.DataPath,
		Instruction:      b.Instruction,
		DocumentationURL: b.DocumentationURL,
		ResponseSchema:   b.ResponseSchema,
		ResponseMapping:  b.ResponseMapping,
	}
}

// fromApiConfig hydrates every field from a cached config, making it
// fully authoritative over whatever the Synthesizer would otherwise
// propose (see CallHandler's CacheMode handling).
func fromApiConfig(cfg *models.ApiConfig, instruction string) synth.EndpointInput {
	return synth.EndpointInput{
		URLHost:          cfg.URLHost,
		URLPath:          cfg.URLPath,
		Method:           cfg.Method,
		Headers:          cfg.Headers,
		QueryParams:      cfg.QueryParams,
		Body:             cfg.Body,
		Authentication:   cfg.Authentication,
		Pagination:       cfg.Pagination,
		DataPath:         cfg.DataPath,
		Instruction:      instruction,
		DocumentationURL: cfg.DocumentationURL,
		ResponseSchema:   cfg.ResponseSchema,
		ResponseMapping:  cfg.ResponseMapping,
	}
}

// CallOptionsBody mirrors models.CallOptions for the wire.
type CallOptionsBody struct {
	CacheMode  string `json:"cacheMode,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	Retries    int    `json:"retries,omitempty"`
	RetryDelay string `json:"retryDelay,omitempty"`
}

func (b CallOptionsBody) toCallOptions() models.CallOptions {
	opts := models.CallOptions{
		CacheMode: models.CacheMode(b.CacheMode),
		Retries:   b.Retries,
	}
	if d, err := parseDuration(b.Timeout); err == nil {
		opts.Timeout = d
	}
	if d, err := parseDuration(b.RetryDelay); err == nil {
		opts.RetryDelay = d
	}
	return opts
}

// CallRequest is the body of POST /v1/call.
type CallRequest struct {
	Input       EndpointInputBody `json:"input"`
	Payload     map[string]any    `json:"payload,omitempty"`
	Credentials map[string]any    `json:"credentials,omitempty"`
	Options     CallOptionsBody   `json:"options,omitempty"`
}

// CallInput is the Huma input wrapper for POST /v1/call.
type CallInput struct {
	Body CallRequest
}

// CallOutput is the Huma output wrapper for POST /v1/call.
type CallOutput struct {
	Body models.RunResult
}

// CallHandler drives the Request Executor and honors CacheMode against
// the configured Store.
type CallHandler struct {
	Executor *executor.Executor
	Store    store.Store
}

// Handle runs the Call pipeline: on a cache hit (ENABLED/READONLY) the
// cached ApiConfig's fields are fed back in as caller-authoritative
// input so the Synthesizer reproduces it; on success with
// ENABLED/WRITEONLY the resulting config is persisted, and the run is
// recorded in every mode except DISABLED, whether it succeeded or not.
func (h *CallHandler) Handle(ctx context.Context, req CallRequest) *models.RunResult {
	input := req.Input.toEndpointInput()
	opts := req.Options.toCallOptions()

	cacheKey := synth.EndpointCacheKey(input, req.Payload)
	if h.Store != nil && (opts.CacheMode == models.CacheEnabled || opts.CacheMode == models.CacheReadOnly) {
		if cached, err := h.Store.GetApiConfig(ctx, cacheKey); err == nil {
			input = fromApiConfig(cached, input.Instruction)
		}
	}

	result := h.Executor.Run(ctx, input, req.Payload, req.Credentials, opts)

	if h.Store != nil && result.Success && (opts.CacheMode == models.CacheEnabled || opts.CacheMode == models.CacheWriteOnly) {
		if cfg, ok := result.Config.(*models.ApiConfig); ok {
			if err := h.Store.UpsertApiConfig(ctx, cfg); err != nil {
				slog.WarnContext(ctx, "handlers: caching api config failed", "error", err)
			}
		}
	}
	if h.Store != nil && opts.CacheMode != models.CacheDisabled {
		if err := h.Store.AppendRun(ctx, result); err != nil {
			slog.WarnContext(ctx, "handlers: recording run failed", "error", err)
		}
	}

	return result
}
