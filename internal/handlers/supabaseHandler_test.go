package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSupabaseHandler_MissingURL(t *testing.T) {
	handler, err := NewSupabaseHandler("", "test-key")

	assert.Nil(t, handler)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "supabase URL is required")
}

func TestNewSupabaseHandler_MissingKey(t *testing.T) {
	handler, err := NewSupabaseHandler("https://test.supabase.co", "")

	assert.Nil(t, handler)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "supabase key is required")
}

func TestNewSupabaseHandler_BothMissing(t *testing.T) {
	handler, err := NewSupabaseHandler("", "")

	assert.Nil(t, handler)
	assert.Error(t, err)
}

func TestNewSupabaseHandler_Valid(t *testing.T) {
	handler, err := NewSupabaseHandler("https://test.supabase.co", "test-key")

	assert.NoError(t, err)
	assert.NotNil(t, handler)
}
