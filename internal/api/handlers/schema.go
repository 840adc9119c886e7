package handlers

import (
	"context"

	"github.com/jmylchreest/apiforge/internal/synth"
)

// SchemaRequest is the body of POST /v1/schema.
type SchemaRequest struct {
	Instruction    string `json:"instruction"`
	ResponseData   string `json:"responseData,omitempty"`
}

// SchemaInput is the Huma input wrapper for POST /v1/schema.
type SchemaInput struct {
	Body SchemaRequest
}

// SchemaResponse wraps the generated JSON Schema.
type SchemaResponse struct {
	JSONSchema map[string]any `json:"jsonSchema"`
}

// SchemaOutput is the Huma output wrapper for POST /v1/schema.
type SchemaOutput struct {
	Body SchemaResponse
}

// SchemaHandler runs the Schema Generator directly.
type SchemaHandler struct {
	Generator *synth.SchemaGenerator
}

func (h *SchemaHandler) Handle(ctx context.Context, req SchemaRequest) (*SchemaResponse, error) {
	schema, err := h.Generator.GenerateSchema(ctx, req.Instruction, req.ResponseData)
	if err != nil {
		return nil, err
	}
	return &SchemaResponse{JSONSchema: schema}, nil
}
