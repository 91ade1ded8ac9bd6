package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty text", "", 0},
		{"single char rounds up", "a", 1},
		{"exactly one token", "abcd", 1},
		{"five chars rounds up", "abcde", 2},
		{"longer text", strings.Repeat("a", 400), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateTokens(tt.text))
		})
	}
}

func TestCalculateCost(t *testing.T) {
	tracker := NewUsageTrackerHandler(nil, "test-run")

	t.Run("known model pricing", func(t *testing.T) {
		// gemini-2.5-flash: $0.30/MTok in, $2.50/MTok out
		cost := tracker.CalculateCost("gemini-2.5-flash", 1_000_000, 1_000_000)
		assert.InDelta(t, 2.80, cost, 0.0001)
	})

	t.Run("openrouter model pricing", func(t *testing.T) {
		// openai/gpt-4.1-mini: $0.40/MTok in, $1.60/MTok out
		cost := tracker.CalculateCost("openai/gpt-4.1-mini", 500_000, 250_000)
		assert.InDelta(t, 0.60, cost, 0.0001)
	})

	t.Run("unknown model falls back to flash pricing", func(t *testing.T) {
		known := tracker.CalculateCost("gemini-2.5-flash", 1000, 1000)
		unknown := tracker.CalculateCost("some-unknown-model", 1000, 1000)
		assert.Equal(t, known, unknown)
	})

	t.Run("zero tokens cost nothing", func(t *testing.T) {
		assert.Zero(t, tracker.CalculateCost("gemini-2.5-flash", 0, 0))
	})
}

func TestTrackOperationWithoutSupabase(t *testing.T) {
	tracker := NewUsageTrackerHandler(nil, "test-run")

	err := tracker.TrackOperation(TrackOperationInput{
		Model:     "gemini-2.5-flash",
		InputText: "prompt",
		Success:   true,
	})
	assert.NoError(t, err)
}
