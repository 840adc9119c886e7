package jsonata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFieldAccess(t *testing.T) {
	v, err := Apply(map[string]any{"user": map[string]any{"name": "Alice"}}, "user.name")
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)
}

func TestApplyConcat(t *testing.T) {
	v, err := Apply(map[string]any{"user": map[string]any{"first": "J", "last": "D"}}, `user.first & " " & user.last`)
	require.NoError(t, err)
	assert.Equal(t, "J D", v)
}

func TestApplyArrayFieldMapping(t *testing.T) {
	data := map[string]any{"items": []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
	}}
	v, err := Apply(data, "items.name")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestApplyIndexAccess(t *testing.T) {
	v, err := Apply(map[string]any{"items": []any{"x", "y", "z"}}, "items[1]")
	require.NoError(t, err)
	assert.Equal(t, "y", v)
}

func TestApplyNegativeIndex(t *testing.T) {
	v, err := Apply(map[string]any{"items": []any{"x", "y", "z"}}, "items[-1]")
	require.NoError(t, err)
	assert.Equal(t, "z", v)
}

func TestApplyPredicateFilter(t *testing.T) {
	data := map[string]any{"items": []any{
		map[string]any{"age": 10.0},
		map[string]any{"age": 20.0},
	}}
	v, err := Apply(data, "items[age > 15]")
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, 20.0, m["age"])
}

func TestApplyObjectConstructor(t *testing.T) {
	v, err := Apply(map[string]any{"name": "Alice", "age": 30.0}, `{"fullName": name, "years": age}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fullName": "Alice", "years": 30.0}, v)
}

func TestApplySumCountDistinct(t *testing.T) {
	data := map[string]any{"nums": []any{1.0, 2.0, 2.0, 3.0}}
	sum, err := Apply(data, "$sum(nums)")
	require.NoError(t, err)
	assert.Equal(t, 6.0, sum)

	count, err := Apply(data, "$count(nums)")
	require.NoError(t, err)
	assert.Equal(t, 4.0, count)

	dist, err := Apply(data, "$distinct(nums)")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, dist)
}

func TestApplyLookup(t *testing.T) {
	v, err := Apply(map[string]any{"a": 1.0, "b": 2.0}, `$lookup($, "b")`)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestApplyMapWithLambda(t *testing.T) {
	data := map[string]any{"items": []any{
		map[string]any{"first": "a", "last": "x"},
		map[string]any{"first": "b", "last": "y"},
	}}
	v, err := Apply(data, `$map(items, function($v) { $v.first & $v.last })`)
	require.NoError(t, err)
	assert.Equal(t, []any{"ax", "by"}, v)
}

func TestApplyFilterWithLambda(t *testing.T) {
	data := map[string]any{"items": []any{1.0, 2.0, 3.0, 4.0}}
	v, err := Apply(data, `$filter(items, function($v) { $v > 2 })`)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0, 4.0}, v)
}

func TestApplyMatch(t *testing.T) {
	v, err := Apply(nil, `$match("hello123", "^[a-z]+[0-9]+$")`)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestValidateAndApplySuccess(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}
	r := ValidateAndApply(map[string]any{"user": map[string]any{"first": "J", "last": "D"}}, `{"name": user.first & " " & user.last}`, schema)
	assert.True(t, r.Success)
	assert.Equal(t, map[string]any{"name": "J D"}, r.Data)
}

func TestValidateAndApplyFailureReportsPath(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}
	r := ValidateAndApply(map[string]any{"user": map[string]any{"first": "J"}}, `{"wrong": user.first}`, schema)
	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Error)
}

func TestInferSchemaUsesFirstArrayElement(t *testing.T) {
	schema := InferSchema(map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b", "extra": true},
		},
	})
	props := schema["properties"].(map[string]any)
	items := props["items"].(map[string]any)
	assert.Equal(t, "array", items["type"])
	itemSchema := items["items"].(map[string]any)
	itemProps := itemSchema["properties"].(map[string]any)
	assert.Contains(t, itemProps, "name")
	assert.NotContains(t, itemProps, "extra")
}
