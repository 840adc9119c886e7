package synth

import (
	"context"

	"github.com/jmylchreest/apiforge/internal/models"
)

// Completer is the subset of internal/llm.Registry the Synthesizers
// depend on, kept as an interface so each Synthesizer can be tested
// against a fake without constructing real provider HTTP clients.
type Completer interface {
	Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error)
	DefaultModel() string
	SchemaModel() string
	IsReasoningModel(model string) bool
}

// DocFetcher is the subset of internal/docfetch.Fetcher the Endpoint and
// Extract Synthesizers depend on.
type DocFetcher interface {
	Fetch(ctx context.Context, pageURL string, headers map[string]string, query map[string]string) string
}
