package datapath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigateRootDollarSkipped(t *testing.T) {
	v, ok := Navigate(map[string]any{"items": []any{1, 2}}, "$.items")
	assert.True(t, ok)
	assert.Equal(t, []any{1, 2}, v)
}

func TestNavigateNested(t *testing.T) {
	v, ok := Navigate(map[string]any{"data": map[string]any{"users": []any{"a"}}}, "data.users")
	assert.True(t, ok)
	assert.Equal(t, []any{"a"}, v)
}

func TestNavigateMissingSegmentRetainsLastValid(t *testing.T) {
	v, ok := Navigate(map[string]any{"data": map[string]any{"x": 1}}, "data.missing.deeper")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"x": 1}, v)
}

func TestNavigateEmptyPathReturnsValue(t *testing.T) {
	in := map[string]any{"a": 1}
	v, ok := Navigate(in, "")
	assert.True(t, ok)
	assert.Equal(t, in, v)
}
