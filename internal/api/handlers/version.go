package handlers

import (
	"context"

	"github.com/jmylchreest/apiforge/internal/version"
)

// VersionOutput is the Huma output wrapper for GET /v1/version.
type VersionOutput struct {
	Body version.Info
}

// VersionHandler reports build metadata.
type VersionHandler struct{}

func (h *VersionHandler) Handle(ctx context.Context) *VersionOutput {
	return &VersionOutput{Body: version.Get()}
}
