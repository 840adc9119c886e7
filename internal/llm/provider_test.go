package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("gpt-4o-mini"))
	assert.True(t, isReasoningModel("o3-mini"))
	assert.False(t, isReasoningModel("gpt-4-turbo"))
	assert.False(t, isReasoningModel("claude-3-5-sonnet"))
}

func TestReasoningTemperatureOmittedForReasoningModels(t *testing.T) {
	assert.Nil(t, ReasoningTemperature("gpt-4o", 2))
	assert.Nil(t, ReasoningTemperature("o3-mini", 1))
}

func TestReasoningTemperatureScalesWithRetryCount(t *testing.T) {
	temp := ReasoningTemperature("gpt-4-turbo", 3)
	assert.InDelta(t, 0.3, *temp, 0.0001)
}

func TestReasoningTemperatureCapsAtOne(t *testing.T) {
	temp := ReasoningTemperature("gpt-4-turbo", 50)
	assert.InDelta(t, 1.0, *temp, 0.0001)
}
