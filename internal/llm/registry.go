package llm

import (
	"context"
	"fmt"

	"github.com/jmylchreest/apiforge/internal/models"
)

// ProviderConfig is the subset of process configuration a Registry needs
// to construct a Provider instance.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Registry holds the constructed active provider instance and the
// process-wide active-model/schema-model selection. Provider/model
// selection is process-wide state initialized at startup, injected here
// as an explicit struct rather than left as package globals.
type Registry struct {
	active      Provider
	activeModel string
	schemaModel string
}

// NewRegistry constructs only the provider named by active ("A" or "B")
// from its config and uses it as the default for Synthesizer calls; the
// other provider's config is not used.
func NewRegistry(active string, a, b ProviderConfig, schemaModel string) (*Registry, error) {
	var p Provider
	var model string
	switch active {
	case "A":
		p = NewOpenAIProvider(a.BaseURL, a.APIKey)
		model = a.Model
	case "B":
		p = NewOpenRouterProvider(b.BaseURL, b.APIKey)
		model = b.Model
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", active)
	}
	if schemaModel == "" {
		schemaModel = model
	}
	return &Registry{active: p, activeModel: model, schemaModel: schemaModel}, nil
}

// DefaultModel returns the active provider's default model.
func (r *Registry) DefaultModel() string { return r.activeModel }

// SchemaModel returns the model to use for schema-generation calls.
func (r *Registry) SchemaModel() string { return r.schemaModel }

// Complete forwards to the active provider's Complete.
func (r *Registry) Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error) {
	if model == "" {
		model = r.activeModel
	}
	return r.active.Complete(ctx, messages, responseSchema, model, temperature)
}

// IsReasoningModel exposes the package-level reasoning-model check.
func IsReasoningModel(model string) bool { return isReasoningModel(model) }

// IsReasoningModel implements synth.Completer's capability check as a
// method, so the Registry can be passed directly wherever a Completer is
// expected without a free function reference.
func (r *Registry) IsReasoningModel(model string) bool { return isReasoningModel(model) }
