package llm

import (
	"context"
	"strings"

	"github.com/jmylchreest/apiforge/internal/models"
)

// Provider is the capability set the Synthesizers depend on: a single
// structured-JSON chat-completion RPC. Per the re-architecture notes,
// providers differ only in base URL, API key, extra headers, and model
// naming convention — modeled here as a capability interface with two
// constructed instances, not an inheritance hierarchy.
type Provider interface {
	// Complete sends messages and returns the raw completion string; it
	// must surface the string as-is (markdown fences and all) so the
	// Synthesizer retry loop can parse and report failures itself.
	Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error)
}

// isReasoningModel reports whether name is a "reasoning" model for which
// the temperature parameter must be omitted entirely.
func isReasoningModel(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "gpt-4o") || strings.Contains(lower, "o3")
}

// ReasoningTemperature returns the temperature to send for model, or nil
// if it must be omitted (reasoning models don't accept it).
func ReasoningTemperature(model string, retryCount int) *float64 {
	if isReasoningModel(model) {
		return nil
	}
	t := 0.1 * float64(retryCount)
	if t > 1.0 {
		t = 1.0
	}
	return &t
}
