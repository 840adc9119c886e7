package handlers

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/store"
	"github.com/jmylchreest/apiforge/internal/synth"
)

// TransformRequest is the body of POST /v1/transform.
type TransformRequest struct {
	Instruction     string          `json:"instruction"`
	ResponseSchema  map[string]any  `json:"responseSchema,omitempty"`
	ResponseMapping string          `json:"responseMapping,omitempty"`
	Data            any             `json:"data"`
	Options         CallOptionsBody `json:"options,omitempty"`
}

// TransformInput is the Huma input wrapper for POST /v1/transform.
type TransformInput struct {
	Body TransformRequest
}

// TransformResponse is the transform outcome: nil TransformConfig means
// the Transform Synthesizer declined (empty schema/data or exhausted
// retries), per spec boundary behaviors.
type TransformResponse struct {
	Config *models.TransformConfig `json:"config,omitempty"`
}

// TransformOutput is the Huma output wrapper for POST /v1/transform.
type TransformOutput struct {
	Body TransformResponse
}

// TransformHandler runs the Transform Synthesizer directly, bypassing
// the Executor, and honors CacheMode against the configured Store,
// mirroring CallHandler/ExtractHandler.
type TransformHandler struct {
	Synth *synth.TransformSynthesizer
	Store store.Store
}

func (h *TransformHandler) Handle(ctx context.Context, req TransformRequest) (*TransformResponse, error) {
	opts := req.Options.toCallOptions()
	fromCache := h.Store != nil && (opts.CacheMode == models.CacheEnabled || opts.CacheMode == models.CacheReadOnly)

	cfg, err := h.Synth.PrepareTransform(ctx, h.Store, fromCache, req.Instruction, req.ResponseSchema, req.ResponseMapping, req.Data)
	if err != nil {
		return nil, err
	}

	if h.Store != nil && cfg != nil && (opts.CacheMode == models.CacheEnabled || opts.CacheMode == models.CacheWriteOnly) {
		if err := h.Store.UpsertTransformConfig(ctx, cfg); err != nil {
			slog.WarnContext(ctx, "handlers: caching transform config failed", "error", err)
		}
	}

	return &TransformResponse{Config: cfg}, nil
}
