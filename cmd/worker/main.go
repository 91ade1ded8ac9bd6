package main

import (
	"context"
	"log"
	"os"
	"time"

	"webstar/tradework-outreach-worker/internal/config"
	"webstar/tradework-outreach-worker/internal/handlers"
	"webstar/tradework-outreach-worker/internal/model/provider"
	"webstar/tradework-outreach-worker/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real deployments use environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf(".env file not found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	runID := time.Now().UTC().Format("20060102-150405")

	// Initialize the sheets handler (input and output live in the same spreadsheet)
	sheetsHandler, err := handlers.NewSheetsHandler(ctx, cfg.SheetID, cfg.SheetName, cfg.OutputSheetName, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize SheetsHandler: %v", err)
	}
	log.Printf("SheetsHandler initialized - sheet=%s, input=%s, output=%s", cfg.SheetID, cfg.SheetName, cfg.OutputSheetName)

	reviewFetcher := handlers.NewReviewFetcherHandler(cfg.SerpAPIKey, cfg.MaxReviews)

	// Build the LLM once and share it between both agents
	backend := provider.DetectBackend(cfg.UseOpenRouter, cfg.UseVertexAI)
	modelName := cfg.GeminiModel
	if cfg.UseOpenRouter {
		modelName = cfg.OpenRouterModel
	}
	if modelName == "" {
		modelName = provider.DefaultModel(backend)
	}

	llm, err := provider.NewModel(ctx, provider.Config{
		Backend:            backend,
		Model:              modelName,
		GoogleAPIKey:       cfg.GoogleAPIKey,
		GCPProject:         cfg.GCPProject,
		GCPLocation:        cfg.GCPLocation,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		OpenRouterSiteURL:  cfg.OpenRouterSiteURL,
		OpenRouterSiteName: cfg.OpenRouterSiteName,
	})
	if err != nil {
		log.Fatalf("Failed to create LLM model: %v", err)
	}

	summarizer, err := handlers.NewReviewSummarizerHandler(llm, modelName)
	if err != nil {
		log.Fatalf("Failed to initialize ReviewSummarizerHandler: %v", err)
	}

	generator, err := handlers.NewMessageGeneratorHandler(llm, modelName)
	if err != nil {
		log.Fatalf("Failed to initialize MessageGeneratorHandler: %v", err)
	}

	processor, err := services.NewLeadProcessor(runID, sheetsHandler, reviewFetcher, summarizer, generator)
	if err != nil {
		log.Fatalf("Failed to initialize LeadProcessor: %v", err)
	}
	processor.SetMaxLeads(cfg.MaxLeads)

	// Initialize SupabaseHandler if credentials are configured
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		supabaseHandler, err := handlers.NewSupabaseHandler(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.Printf("Warning: Failed to initialize SupabaseHandler: %v", err)
			log.Printf("Continuing without run reports and usage tracking")
		} else {
			processor.SetSupabaseHandler(supabaseHandler)
			usageTracker := handlers.NewUsageTrackerHandler(supabaseHandler, runID)
			summarizer.SetUsageTracker(usageTracker)
			generator.SetUsageTracker(usageTracker)
			processor.SetUsageTracker(usageTracker)
			log.Printf("SupabaseHandler initialized - run reports and usage tracking enabled")
		}
	} else {
		log.Printf("SUPABASE_URL or SUPABASE_SECRET_KEY not set - run reports disabled")
	}

	// Initialize FirecrawlHandler if API key is configured
	if cfg.FirecrawlAPIKey != "" {
		firecrawlHandler, err := handlers.NewFirecrawlHandler(cfg.FirecrawlAPIKey, cfg.FirecrawlAPIURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize FirecrawlHandler: %v", err)
			log.Printf("Continuing without website fallback")
		} else {
			processor.SetWebsiteScraper(firecrawlHandler)
			log.Printf("FirecrawlHandler initialized - website fallback enabled")
		}
	} else {
		log.Printf("FIRECRAWL_API_KEY not set - website fallback disabled")
	}

	report, err := processor.Run(ctx)
	if err != nil {
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}

	if report.LeadsFailed > 0 {
		log.Printf("Run finished with %d failed leads", report.LeadsFailed)
	}
}
