package synth

import (
	"context"

	"github.com/jmylchreest/apiforge/internal/models"
)

// fakeCompleter returns canned completions in sequence, one per call to
// Complete, so tests can script a failing-then-succeeding repair loop.
type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
	reasoning bool
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	} else if len(f.responses) > 0 {
		resp = f.responses[len(f.responses)-1]
	}
	return resp, models.Usage{InputTokens: 10, OutputTokens: 10}, err
}

func (f *fakeCompleter) DefaultModel() string { return "fake-model" }
func (f *fakeCompleter) SchemaModel() string  { return "fake-schema-model" }
func (f *fakeCompleter) IsReasoningModel(model string) bool { return f.reasoning }

type fakeDocFetcher struct {
	content string
}

func (f *fakeDocFetcher) Fetch(ctx context.Context, pageURL string, headers map[string]string, query map[string]string) string {
	return f.content
}
