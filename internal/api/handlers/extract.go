package handlers

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/apiforge/internal/fileextract"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/store"
	"github.com/jmylchreest/apiforge/internal/synth"
)

// ExtractInputBody mirrors synth.ExtractInput with JSON tags for the wire.
type ExtractInputBody struct {
	URLHost             string            `json:"urlHost"`
	URLPath             string            `json:"urlPath,omitempty"`
	Method              string            `json:"method,omitempty"`
	Headers             map[string]string `json:"headers,omitempty"`
	QueryParams         map[string]string `json:"queryParams,omitempty"`
	Body                string            `json:"body,omitempty"`
	Authentication      string            `json:"authentication,omitempty"`
	DataPath            string            `json:"dataPath,omitempty"`
	Instruction         string            `json:"instruction"`
	DocumentationURL    string            `json:"documentationUrl,omitempty"`
	DecompressionMethod string            `json:"decompressionMethod,omitempty"`
	FileType            string            `json:"fileType,omitempty"`
	ResponseSchema      map[string]any    `json:"responseSchema,omitempty"`
	ResponseMapping     string            `json:"responseMapping,omitempty"`
}

func (b ExtractInputBody) toExtractInput() synth.ExtractInput {
	return synth.ExtractInput{
		URLHost:             b.URLHost,
		URLPath:             b.URLPath,
		Method:              models.Method(b.Method),
		Headers:             b.Headers,
		QueryParams:         b.QueryParams,
		Body:                b.Body,
		Authentication:      models.AuthType(b.Authentication),
		DataPath:            b.DataPath,
		Instruction:         b.Instruction,
		DocumentationURL:    b.DocumentationURL,
		DecompressionMethod: models.DecompressionMethod(b.DecompressionMethod),
		FileType:            models.FileType(b.FileType),
		ResponseSchema:      b.ResponseSchema,
		ResponseMapping:     b.ResponseMapping,
	}
}

func fromExtractConfig(cfg *models.ExtractConfig, instruction string) synth.ExtractInput {
	return synth.ExtractInput{
		URLHost:             cfg.URLHost,
		URLPath:             cfg.URLPath,
		Method:              cfg.Method,
		Headers:             cfg.Headers,
		QueryParams:         cfg.QueryParams,
		Body:                cfg.Body,
		Authentication:      cfg.Authentication,
		DataPath:            cfg.DataPath,
		Instruction:         instruction,
		DocumentationURL:    cfg.DocumentationURL,
		DecompressionMethod: cfg.DecompressionMethod,
		FileType:            cfg.FileType,
		ResponseSchema:      cfg.ResponseSchema,
		ResponseMapping:     cfg.ResponseMapping,
	}
}

// ExtractRequest is the body of POST /v1/extract.
type ExtractRequest struct {
	Input       ExtractInputBody `json:"input"`
	Credentials map[string]any   `json:"credentials,omitempty"`
	Options     CallOptionsBody  `json:"options,omitempty"`
}

// ExtractInput is the Huma input wrapper for POST /v1/extract.
type ExtractInput struct {
	Body ExtractRequest
}

// ExtractOutput is the Huma output wrapper for POST /v1/extract.
type ExtractOutput struct {
	Body models.RunResult
}

// ExtractHandler drives the File Extractor and honors CacheMode against
// the configured Store, mirroring CallHandler.
type ExtractHandler struct {
	Extractor *fileextract.FileExtractor
	Store     store.Store
}

func (h *ExtractHandler) Handle(ctx context.Context, req ExtractRequest) *models.RunResult {
	input := req.Input.toExtractInput()
	opts := req.Options.toCallOptions()

	cacheKey := synth.ExtractCacheKey(input, map[string]any{"sample": ""})
	if h.Store != nil && (opts.CacheMode == models.CacheEnabled || opts.CacheMode == models.CacheReadOnly) {
		if cached, err := h.Store.GetExtractConfig(ctx, cacheKey); err == nil {
			input = fromExtractConfig(cached, input.Instruction)
		}
	}

	result := h.Extractor.Run(ctx, input, req.Credentials)

	if h.Store != nil && result.Success && (opts.CacheMode == models.CacheEnabled || opts.CacheMode == models.CacheWriteOnly) {
		if cfg, ok := result.Config.(*models.ExtractConfig); ok {
			if err := h.Store.UpsertExtractConfig(ctx, cfg); err != nil {
				slog.WarnContext(ctx, "handlers: caching extract config failed", "error", err)
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
