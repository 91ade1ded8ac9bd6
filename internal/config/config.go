package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults for optional configuration values
const (
	DefaultSheetName       = "test_sheets"
	DefaultOutputSheetName = "outreach_personalisation"
	DefaultCredentialsFile = "credentials.json"
	DefaultOpenRouterModel = "openai/gpt-4.1-mini"
	DefaultMaxReviews      = 20
)

// Config holds the application configuration
type Config struct {
	// Google Sheets
	SheetID         string
	SheetName       string
	OutputSheetName string
	CredentialsFile string

	// SerpAPI (Google Maps reviews)
	SerpAPIKey string
	MaxReviews int

	// Batch limit (0 = process all unprocessed leads)
	MaxLeads int

	// AI backend selection
	UseOpenRouter      bool
	OpenRouterAPIKey   string
	OpenRouterModel    string
	OpenRouterSiteURL  string
	OpenRouterSiteName string
	GoogleAPIKey       string
	GeminiModel        string
	UseVertexAI        bool
	GCPProject         string
	GCPLocation        string

	// Firecrawl (optional website-scrape fallback)
	FirecrawlAPIKey string
	FirecrawlAPIURL string // Optional: custom Firecrawl API URL (leave empty for default)

	// Supabase (optional run reports + usage metrics)
	SupabaseURL string
	SupabaseKey string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		SheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		SheetName:       getEnvWithDefault("GOOGLE_SHEET_NAME", DefaultSheetName),
		OutputSheetName: getEnvWithDefault("OUTPUT_SHEET_NAME", DefaultOutputSheetName),
		CredentialsFile: getEnvWithDefault("GOOGLE_SHEETS_CREDENTIALS_FILE", DefaultCredentialsFile),

		SerpAPIKey: os.Getenv("SERPAPI_KEY"),
		MaxReviews: getEnvInt("MAX_REVIEWS", DefaultMaxReviews),
		MaxLeads:   getEnvInt("MAX_LEADS", 0),

		UseOpenRouter:      os.Getenv("USE_OPENROUTER") == "true",
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:    getEnvWithDefault("OPENROUTER_MODEL", DefaultOpenRouterModel),
		OpenRouterSiteURL:  os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterSiteName: os.Getenv("OPENROUTER_SITE_NAME"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		UseVertexAI:        os.Getenv("GOOGLE_GENAI_USE_VERTEXAI") == "true",
		GCPProject:         os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCPLocation:        os.Getenv("GOOGLE_CLOUD_LOCATION"),

		FirecrawlAPIKey: os.Getenv("FIRECRAWL_API_KEY"),
		FirecrawlAPIURL: os.Getenv("FIRECRAWL_API_URL"), // Optional

		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: getEnvWithFallback("SUPABASE_SECRET_KEY", "SUPABASE_KEY"),
	}
}

// Validate checks that every required value is present. It returns a single
// error naming all missing variables so the operator can fix them in one pass.
func (c *Config) Validate() error {
	var missing []string

	if c.SheetID == "" {
		missing = append(missing, "GOOGLE_SHEET_ID")
	}
	if c.SerpAPIKey == "" {
		missing = append(missing, "SERPAPI_KEY")
	}

	switch {
	case c.UseOpenRouter:
		if c.OpenRouterAPIKey == "" {
			missing = append(missing, "OPENROUTER_API_KEY")
		}
	case c.UseVertexAI:
		if c.GCPProject == "" {
			missing = append(missing, "GOOGLE_CLOUD_PROJECT")
		}
		if c.GCPLocation == "" {
			missing = append(missing, "GOOGLE_CLOUD_LOCATION")
		}
	default:
		if c.GoogleAPIKey == "" {
			missing = append(missing, "GOOGLE_API_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnvWithDefault returns the env value or the default when unset/empty
func getEnvWithDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvWithFallback returns the primary env value, falling back to the
// secondary variable when the primary is unset or empty
func getEnvWithFallback(primary, fallback string) string {
	if val := os.Getenv(primary); val != "" {
		return val
	}
	return os.Getenv(fallback)
}

// getEnvInt parses an integer env value, returning the default when unset
// or unparsable
func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}
