package fileextract

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/apiforge/internal/httpcaller"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/synth"
)

// fakeCompleter scripts canned completions for the Extract Synthesizer
// calls the File Extractor drives.
type fakeCompleter struct {
	responses []string
	calls     int32
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []models.Turn, responseSchema map[string]any, model string, temperature *float64) (string, models.Usage, error) {
	i := atomic.AddInt32(&f.calls, 1) - 1
	if int(i) >= len(f.responses) {
		return f.responses[len(f.responses)-1], models.Usage{}, nil
	}
	return f.responses[i], models.Usage{}, nil
}
func (f *fakeCompleter) DefaultModel() string              { return "fake-model" }
func (f *fakeCompleter) SchemaModel() string               { return "fake-model" }
func (f *fakeCompleter) IsReasoningModel(model string) bool { return false }

func TestRunSucceedsWithJSONSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	cfgJSON := fmt.Sprintf(`{"urlHost":%q,"urlPath":"/export","method":"GET","fileType":"JSON","decompressionMethod":"NONE","dataPath":"rows"}`, srv.URL)
	llm := &fakeCompleter{responses: []string{cfgJSON}}

	fe := &FileExtractor{
		Caller: httpcaller.New(),
		Synth:  &synth.ExtractSynthesizer{LLM: llm},
	}

	result := fe.Run(context.Background(), synth.ExtractInput{URLHost: srv.URL, Instruction: "fetch export"}, nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, []any{map[string]any{"id": json.Number("1")}, map[string]any{"id": json.Number("2")}}, result.Data)
}

func TestRunDecompressesGzipSource(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte(`{"rows":["a","b","c"]}`))
	gw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	cfgJSON := fmt.Sprintf(`{"urlHost":%q,"urlPath":"/export.gz","method":"GET","fileType":"JSON","decompressionMethod":"GZIP","dataPath":"rows"}`, srv.URL)
	llm := &fakeCompleter{responses: []string{cfgJSON}}

	fe := &FileExtractor{
		Caller: httpcaller.New(),
		Synth:  &synth.ExtractSynthesizer{LLM: llm},
	}

	result := fe.Run(context.Background(), synth.ExtractInput{URLHost: srv.URL, Instruction: "fetch gzipped export"}, nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, []any{"a", "b", "c"}, result.Data)
}

func TestRunRepairsAfterParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":["x"]}`))
	}))
	defer srv.Close()

	// First config declares XML for a JSON body: parsing fails and
	// triggers a repair re-synthesis with the corrected fileType.
	badCfg := fmt.Sprintf(`{"urlHost":%q,"urlPath":"/export","method":"GET","fileType":"XML","decompressionMethod":"NONE","dataPath":"rows"}`, srv.URL)
	goodCfg := fmt.Sprintf(`{"urlHost":%q,"urlPath":"/export","method":"GET","fileType":"JSON","decompressionMethod":"NONE","dataPath":"rows"}`, srv.URL)
	llm := &fakeCompleter{responses: []string{badCfg, goodCfg}}

	fe := &FileExtractor{
		Caller: httpcaller.New(),
		Synth:  &synth.ExtractSynthesizer{LLM: llm},
	}

	result := fe.Run(context.Background(), synth.ExtractInput{URLHost: srv.URL, Instruction: "fetch export"}, nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, []any{"x"}, result.Data)
}

func TestRunFailsOnUnresolvedVariables(t *testing.T) {
	cfgJSON := `{"urlHost":"http://127.0.0.1:1","urlPath":"/export/{missingVar}","method":"GET","fileType":"JSON","decompressionMethod":"NONE"}`
	llm := &fakeCompleter{responses: []string{cfgJSON, cfgJSON, cfgJSON, cfgJSON, cfgJSON, cfgJSON}}

	fe := &FileExtractor{
		Caller: httpcaller.New(),
		Synth:  &synth.ExtractSynthesizer{LLM: llm},
	}

	result := fe.Run(context.Background(), synth.ExtractInput{URLHost: "http://127.0.0.1:1", Instruction: "fetch export"}, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unresolved variables")
}
