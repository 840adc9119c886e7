package synth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/apiforge/internal/jsonata"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/store"
)

func TestPrepareTransformReturnsNilWhenNoSchemaOrData(t *testing.T) {
	s := &TransformSynthesizer{LLM: &fakeCompleter{}}

	cfg, err := s.PrepareTransform(context.Background(), nil, false, "map it", nil, "", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = s.PrepareTransform(context.Background(), nil, false, "map it", map[string]any{"type": "object"}, "", nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestPrepareTransformAppliesCallerSuppliedMapping(t *testing.T) {
	s := &TransformSynthesizer{LLM: &fakeCompleter{}}

	data := map[string]any{"items": []any{map[string]any{"id": float64(1)}}}
	schema := map[string]any{
		"type": "array",
	}
	cfg, err := s.PrepareTransform(context.Background(), nil, false, "map it", schema, "items", data)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "items", cfg.ResponseMapping)
	assert.Equal(t, 100, cfg.Confidence)
}

func TestPrepareTransformRetriesOnInvalidMapping(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"responseMapping":"doesNotExist","confidence":50}`,
		`{"responseMapping":"items","confidence":90,"confidenceReasoning":"direct field match"}`,
	}}
	s := &TransformSynthesizer{LLM: llm}

	data := map[string]any{"items": []any{map[string]any{"id": float64(1)}}}
	schema := map[string]any{"type": "array"}

	cfg, err := s.PrepareTransform(context.Background(), nil, false, "map it", schema, "", data)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "items", cfg.ResponseMapping)
	assert.Equal(t, 2, llm.calls)
}

func TestPrepareTransformExhaustsRetriesReturnsNil(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"responseMapping":"doesNotExist","confidence":10}`}}
	s := &TransformSynthesizer{LLM: llm}

	data := map[string]any{"items": []any{map[string]any{"id": float64(1)}}}
	schema := map[string]any{"type": "array"}

	cfg, err := s.PrepareTransform(context.Background(), nil, false, "map it", schema, "", data)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Equal(t, maxTransformRetries, llm.calls)
}

func TestPrepareTransformCacheHitSkipsLLM(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"responseMapping":"items","confidence":90}`}}
	s := &TransformSynthesizer{LLM: llm}

	data := map[string]any{"items": []any{map[string]any{"id": float64(1)}}}
	schema := map[string]any{"type": "array"}

	// Seed the cache with a prior synthesis result, keyed the same way
	// PrepareTransform computes its id.
	id := canonicalID(transformIdentity("map it", schema), map[string]any{"schema": jsonata.InferSchema(data)})
	memStore := store.NewMemoryStore()
	require.NoError(t, memStore.UpsertTransformConfig(context.Background(), &models.TransformConfig{
		Entity:          models.Entity{ID: id},
		Instruction:     "map it",
		ResponseSchema:  schema,
		ResponseMapping: "items",
		Confidence:      90,
	}))

	cfg, err := s.PrepareTransform(context.Background(), memStore, true, "map it", schema, "", data)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "items", cfg.ResponseMapping)
	assert.Equal(t, 0, llm.calls)
}

func TestPrepareTransformCacheMissFallsThroughToLLM(t *testing.T) {
	llm := &fakeCompleter{responses: []string{`{"responseMapping":"items","confidence":90}`}}
	s := &TransformSynthesizer{LLM: llm}

	data := map[string]any{"items": []any{map[string]any{"id": float64(1)}}}
	schema := map[string]any{"type": "array"}

	memStore := store.NewMemoryStore()
	cfg, err := s.PrepareTransform(context.Background(), memStore, true, "map it", schema, "", data)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "items", cfg.ResponseMapping)
	assert.Equal(t, 1, llm.calls)
}
