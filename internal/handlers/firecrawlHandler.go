package handlers

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/mendableai/firecrawl-go/v2"
)

// DefaultScrapeTimeout is the timeout for scraping a lead's homepage
const DefaultScrapeTimeout = 30 * time.Second

// ScrapedPage represents the scraped content from a lead's website
type ScrapedPage struct {
	// URL that was scraped
	URL string `json:"url"`
	// Markdown content extracted from the page
	Markdown string `json:"markdown,omitempty"`
	// Error message if scraping failed
	Error string `json:"error,omitempty"`
	// Success indicates whether the scrape was successful
	Success bool `json:"success"`
}

// FirecrawlHandler scrapes a lead's website homepage when the lead has no
// reviews, so the summarizer still has something concrete to work with
type FirecrawlHandler struct {
	app     *firecrawl.FirecrawlApp
	timeout time.Duration
}

// NewFirecrawlHandler creates a new FirecrawlHandler instance
// apiKey is required, apiURL can be empty to use the default Firecrawl API
func NewFirecrawlHandler(apiKey string, apiURL string) (*FirecrawlHandler, error) {
	log.Printf("[FirecrawlHandler] Initializing with apiURL: %q", apiURL)
	app, err := firecrawl.NewFirecrawlApp(apiKey, apiURL)
	if err != nil {
		log.Printf("[FirecrawlHandler] Failed to create FirecrawlApp: %v", err)
		return nil, err
	}

	return &FirecrawlHandler{
		app:     app,
		timeout: DefaultScrapeTimeout,
	}, nil
}

// SetTimeout allows customizing the scrape timeout
func (h *FirecrawlHandler) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
}

// ScrapeHomepage scrapes a lead's website and returns its markdown content.
// Scrape failures are reported in the result, not as an error, because the
// caller always has the generic-summary fallback to fall through to.
func (h *FirecrawlHandler) ScrapeHomepage(websiteURL string) *ScrapedPage {
	log.Printf("[FirecrawlHandler] ScrapeHomepage called for: %s", websiteURL)
	result := &ScrapedPage{
		URL:     websiteURL,
		Success: false,
	}

	parsedURL, err := url.Parse(websiteURL)
	if err != nil || parsedURL.Host == "" {
		log.Printf("[FirecrawlHandler] Invalid URL: %s", websiteURL)
		result.Error = "invalid URL"
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	type scrapeResult struct {
		data *firecrawl.FirecrawlDocument
		err  error
	}
	resultChan := make(chan scrapeResult, 1)

	// The underlying client has no context support, so run it in a
	// goroutine and race it against the timeout
	go func() {
		scrapedData, err := h.app.ScrapeURL(websiteURL, nil)
		resultChan <- scrapeResult{data: scrapedData, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Printf("[FirecrawlHandler] Timeout exceeded for: %s", websiteURL)
		result.Error = "scrape timeout exceeded"
		return result
	case res := <-resultChan:
		if res.err != nil {
			log.Printf("[FirecrawlHandler] Scrape error for %s: %v", websiteURL, res.err)
			result.Error = res.err.Error()
			return result
		}
		if res.data != nil {
			log.Printf("[FirecrawlHandler] Successfully scraped %s (markdown length: %d)", websiteURL, len(res.data.Markdown))
			result.Markdown = res.data.Markdown
			result.Success = true
		}
	}

	return result
}
