package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"webstar/tradework-outreach-worker/internal/dto"
	"webstar/tradework-outreach-worker/internal/handlers"
)

// LeadSource reads leads and writes personalization rows. Backed by the
// Google Sheets handler in production.
type LeadSource interface {
	ListLeads(ctx context.Context) ([]dto.Lead, error)
	ListProcessedIDs(ctx context.Context) (map[string]struct{}, error)
	AppendPersonalization(ctx context.Context, rec dto.LeadPersonalization) error
}

// ReviewFetcher retrieves Google Maps reviews for a place
type ReviewFetcher interface {
	FetchReviews(placeID string) ([]handlers.Review, error)
}

// Summarizer condenses reviews (or website content) into a ReviewSummary
type Summarizer interface {
	Summarize(ctx context.Context, businessName string, reviews []handlers.Review) (*handlers.ReviewSummary, error)
	SummarizeWebsite(ctx context.Context, businessName, markdown string) (*handlers.ReviewSummary, error)
	SetLeadContext(leadID string)
	ClearLeadContext()
}

// MessageGenerator produces the personalized outreach message for a lead
type MessageGenerator interface {
	Generate(ctx context.Context, lead dto.Lead, summary *handlers.ReviewSummary) (*handlers.PersonalizedMessage, error)
	SetLeadContext(leadID string)
	ClearLeadContext()
}

// WebsiteScraper fetches homepage content for leads without reviews
type WebsiteScraper interface {
	ScrapeHomepage(websiteURL string) *handlers.ScrapedPage
}

// LeadProcessor runs the outreach personalization batch: read leads, skip
// the ones already personalized, enrich each remaining lead with review
// data, generate its message and append the result to the output sheet.
// One lead failing never stops the batch.
type LeadProcessor struct {
	runID        string
	source       LeadSource
	reviews      ReviewFetcher
	summarizer   Summarizer
	generator    MessageGenerator
	scraper      WebsiteScraper
	supabase     *handlers.SupabaseHandler
	usageTracker *handlers.UsageTrackerHandler
	maxLeads     int
}

// NewLeadProcessor creates a new LeadProcessor instance
func NewLeadProcessor(runID string, source LeadSource, reviews ReviewFetcher, summarizer Summarizer, generator MessageGenerator) (*LeadProcessor, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID is required")
	}
	if source == nil {
		return nil, fmt.Errorf("lead source is required")
	}
	if reviews == nil {
		return nil, fmt.Errorf("review fetcher is required")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("message generator is required")
	}

	return &LeadProcessor{
		runID:      runID,
		source:     source,
		reviews:    reviews,
		summarizer: summarizer,
		generator:  generator,
	}, nil
}

// SetWebsiteScraper enables the no-reviews website fallback
func (p *LeadProcessor) SetWebsiteScraper(scraper WebsiteScraper) {
	p.scraper = scraper
}

// SetSupabaseHandler enables run report persistence
func (p *LeadProcessor) SetSupabaseHandler(supabase *handlers.SupabaseHandler) {
	p.supabase = supabase
}

// SetUsageTracker enables usage tracking for scraping operations
func (p *LeadProcessor) SetUsageTracker(tracker *handlers.UsageTrackerHandler) {
	p.usageTracker = tracker
}

// SetMaxLeads caps how many leads a single run will attempt. Zero means
// no cap. Skipped leads do not count against the cap.
func (p *LeadProcessor) SetMaxLeads(max int) {
	p.maxLeads = max
}

// Run executes one batch over all leads in the input sheet. A read failure
// on the input or output sheet is fatal; everything after that is per-lead.
func (p *LeadProcessor) Run(ctx context.Context) (*dto.RunReportRecord, error) {
	startedAt := time.Now()
	log.Printf("[LeadProcessor] Starting run: id=%s", p.runID)

	leads, err := p.source.ListLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}

	processed, err := p.source.ListProcessedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read processed IDs: %w", err)
	}

	report := &dto.RunReportRecord{
		RunID:      p.runID,
		LeadsTotal: len(leads),
		StartedAt:  startedAt,
	}

	log.Printf("[LeadProcessor] Loaded %d leads, %d already personalized", len(leads), len(processed))

	attempted := 0
	for i, lead := range leads {
		if p.maxLeads > 0 && attempted >= p.maxLeads {
			log.Printf("[LeadProcessor] Reached lead cap (%d), stopping", p.maxLeads)
			break
		}

		if _, done := processed[lead.PlaceID]; done {
			log.Printf("[LeadProcessor] Skipping lead %d/%d (already personalized): %s", i+1, len(leads), lead.Business)
			report.LeadsSkipped++
			continue
		}

		attempted++
		if err := p.processLead(ctx, lead); err != nil {
			log.Printf("[LeadProcessor] Lead %d/%d failed: business=%s, error=%v", i+1, len(leads), lead.Business, err)
			report.LeadsFailed++
			continue
		}

		// Guards against duplicate place IDs within the same input sheet
		processed[lead.PlaceID] = struct{}{}
		report.LeadsProcessed++
		report.AppendedIDs = append(report.AppendedIDs, lead.PlaceID)
		log.Printf("[LeadProcessor] ✓ Lead %d/%d personalized: %s", i+1, len(leads), lead.Business)
	}

	report.DurationMs = time.Since(startedAt).Milliseconds()
	log.Printf("[LeadProcessor] Run completed: id=%s, total=%d, processed=%d, skipped=%d, failed=%d, duration=%dms",
		p.runID, report.LeadsTotal, report.LeadsProcessed, report.LeadsSkipped, report.LeadsFailed, report.DurationMs)

	p.saveReport(report)

	return report, nil
}

// processLead runs the full pipeline for a single lead
func (p *LeadProcessor) processLead(ctx context.Context, lead dto.Lead) error {
	p.summarizer.SetLeadContext(lead.PlaceID)
	defer p.summarizer.ClearLeadContext()
	p.generator.SetLeadContext(lead.PlaceID)
	defer p.generator.ClearLeadContext()

	reviews, err := p.reviews.FetchReviews(lead.PlaceID)
	if err != nil {
		// Review fetch problems degrade to the no-reviews path instead of
		// failing the lead
		log.Printf("[LeadProcessor] Review fetch failed for %s, continuing without reviews: %v", lead.Business, err)
		reviews = nil
	}

	summary, err := p.summarize(ctx, lead, reviews)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	msg, err := p.generator.Generate(ctx, lead, summary)
	if err != nil {
		return fmt.Errorf("message generation failed: %w", err)
	}

	rec := dto.LeadPersonalization{
		PlaceID: lead.PlaceID,
		Phone:   lead.Phone,
		Message: msg.DMOpener,
	}
	if err := p.source.AppendPersonalization(ctx, rec); err != nil {
		return fmt.Errorf("failed to append personalization: %w", err)
	}

	return nil
}

// summarize picks the enrichment path for a lead: review summarization when
// reviews exist, a website scrape when they don't, the generic fallback
// summary when neither is available.
func (p *LeadProcessor) summarize(ctx context.Context, lead dto.Lead, reviews []handlers.Review) (*handlers.ReviewSummary, error) {
	if len(reviews) > 0 {
		return p.summarizer.Summarize(ctx, lead.Business, reviews)
	}

	if p.scraper != nil && lead.Website != "" {
		startTime := time.Now()
		page := p.scraper.ScrapeHomepage(lead.Website)

		if p.usageTracker != nil {
			var errMsg *string
			if !page.Success && page.Error != "" {
				errMsg = &page.Error
			}
			leadID := lead.PlaceID
			p.usageTracker.TrackWebsiteScraping(&leadID, len(page.Markdown), startTime, page.Success, errMsg)
		}

		if page.Success {
			return p.summarizer.SummarizeWebsite(ctx, lead.Business, page.Markdown)
		}
		log.Printf("[LeadProcessor] Website scrape failed for %s: %s", lead.Business, page.Error)
	}

	return p.summarizer.Summarize(ctx, lead.Business, nil)
}

// saveReport persists the run report when Supabase is configured
func (p *LeadProcessor) saveReport(report *dto.RunReportRecord) {
	if p.supabase == nil {
		return
	}
	if err := p.supabase.InsertRunReport(report); err != nil {
		log.Printf("[LeadProcessor] Failed to save run report: %v", err)
	}
}
