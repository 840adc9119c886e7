package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareEndpointFreshConversationUsesDocsAndVars(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"urlHost":"https://api.example.com","urlPath":"/widgets","method":"GET","dataPath":"$.data"}`}}
	docs := &fakeDocFetcher{content: "widgets API docs"}
	s := &EndpointSynthesizer{LLM: llm, Docs: docs}

	input := EndpointInput{
		URLHost:     "https://api.example.com",
		Instruction: "list all widgets",
	}
	cfg, messages, err := s.PrepareEndpoint(context.Background(), input, map[string]any{"orgId": "abc"}, nil, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.URLHost)
	assert.Equal(t, "/widgets", cfg.URLPath)
	assert.NotEmpty(t, cfg.ID)
	assert.Len(t, messages, 3) // system, user, assistant
	assert.Equal(t, 1, llm.calls)
}

func TestPrepareEndpointCallerFieldsOverrideLLM(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"urlHost":"https://wrong.example.com","method":"POST","headers":{"x-llm":"1"}}`}}
	s := &EndpointSynthesizer{LLM: llm}

	input := EndpointInput{
		URLHost: "https://api.example.com",
		Method:  "GET",
		Headers: map[string]string{"Authorization": "Bearer {token}"},
	}
	cfg, _, err := s.PrepareEndpoint(context.Background(), input, nil, nil, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.URLHost)
	assert.Equal(t, "GET", string(cfg.Method))
	assert.Equal(t, "Bearer {token}", cfg.Headers["Authorization"])
	assert.Equal(t, "1", cfg.Headers["x-llm"])
}

func TestPrepareEndpointRepairAppendsErrorTurn(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"urlHost":"https://api.example.com","method":"GET"}`,
		`{"urlHost":"https://api.example.com","urlPath":"/fixed","method":"GET"}`,
	}}
	s := &EndpointSynthesizer{LLM: llm}

	input := EndpointInput{URLHost: "https://api.example.com", Instruction: "list widgets"}
	_, messages, err := s.PrepareEndpoint(context.Background(), input, nil, nil, nil, nil, 0)
	require.NoError(t, err)

	cfg2, messages2, err := s.PrepareEndpoint(context.Background(), input, nil, nil, assert.AnError, messages, 1)
	require.NoError(t, err)
	assert.Equal(t, "/fixed", cfg2.URLPath)
	assert.Greater(t, len(messages2), len(messages))
}
