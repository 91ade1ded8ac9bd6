package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapedPage_Fields(t *testing.T) {
	page := ScrapedPage{
		URL:      "https://example.com",
		Markdown: "# Hello World\n\nThis is content.",
		Error:    "",
		Success:  true,
	}

	assert.Equal(t, "https://example.com", page.URL)
	assert.Equal(t, "# Hello World\n\nThis is content.", page.Markdown)
	assert.Empty(t, page.Error)
	assert.True(t, page.Success)
}

func TestScrapedPage_WithError(t *testing.T) {
	page := ScrapedPage{
		URL:     "https://invalid-site.example",
		Error:   "connection timeout",
		Success: false,
	}

	assert.Empty(t, page.Markdown)
	assert.Equal(t, "connection timeout", page.Error)
	assert.False(t, page.Success)
}

func TestNewFirecrawlHandler_MissingAPIKey(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "")
	handler, err := NewFirecrawlHandler("", "")

	assert.Nil(t, handler)
	assert.Error(t, err)
}

func TestFirecrawlHandler_SetTimeout(t *testing.T) {
	handler, err := NewFirecrawlHandler("test-key", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultScrapeTimeout, handler.timeout)

	handler.SetTimeout(10 * time.Second)
	assert.Equal(t, 10*time.Second, handler.timeout)
}
