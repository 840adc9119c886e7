package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchemaParsesWrappedSchema(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"jsonSchema":{"type":"object","properties":{"id":{"type":"string"}}}}`}}
	g := &SchemaGenerator{LLM: llm}

	schema, err := g.GenerateSchema(context.Background(), "give me the widget id", `{"id":"abc"}`)
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
}

func TestGenerateSchemaRetriesOnParseFailureThenSucceeds(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		"not json at all",
		`{"jsonSchema":{"type":"string"}}`,
	}}
	g := &SchemaGenerator{LLM: llm}

	schema, err := g.GenerateSchema(context.Background(), "just the name", `"widget"`)
	require.NoError(t, err)
	assert.Equal(t, "string", schema["type"])
	assert.Equal(t, 2, llm.calls)
}

func TestGenerateSchemaExhaustsRetries(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"still not json", "still not json", "still not json"}}
	g := &SchemaGenerator{LLM: llm}

	_, err := g.GenerateSchema(context.Background(), "x", "y")
	assert.Error(t, err)
	assert.Equal(t, maxSchemaGenRetries, llm.calls)
}
