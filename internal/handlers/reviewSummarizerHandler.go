package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
)

const (
	// DefaultSummaryTimeout is the timeout for summarizing one lead's reviews
	DefaultSummaryTimeout = 45 * time.Second
	// MaxReviewsToSummarize is how many of the fetched reviews are passed to the model
	MaxReviewsToSummarize = 5

	summarizerAppName = "review_summarizer"
)

// ReviewSummary is the structured summarizer output: a best-effort owner
// display name plus a short free-text summary of the reviews. Produced once
// per lead and consumed once by the message generator.
type ReviewSummary struct {
	OwnerName string `json:"owner_name"`
	Summary   string `json:"review_summary"`
}

// FallbackSummary is the summary used when a lead has no usable reviews
// and no website content could be scraped
func FallbackSummary() *ReviewSummary {
	return &ReviewSummary{OwnerName: "Unknown", Summary: "No reviews available"}
}

// ReviewSummarizerHandler condenses a lead's Google Maps reviews into a
// ReviewSummary using an LLM agent
type ReviewSummarizerHandler struct {
	runner         *runner.Runner
	sessionService session.Service
	modelName      string
	timeout        time.Duration
	usageTracker   *UsageTrackerHandler
	leadID         *string
}

// NewReviewSummarizerHandler creates a new ReviewSummarizerHandler backed by
// the given model
func NewReviewSummarizerHandler(llm model.LLM, modelName string) (*ReviewSummarizerHandler, error) {
	if llm == nil {
		return nil, fmt.Errorf("model is required")
	}

	summarizerAgent, err := llmagent.New(llmagent.Config{
		Name:        "review_summarizer_agent",
		Model:       llm,
		Description: "An AI agent that summarizes customer reviews of a trades business and identifies the owner.",
		Instruction: buildSummarizerInstruction(),
	})
	if err != nil {
		log.Printf("[ReviewSummarizerHandler] Failed to create agent: %v", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        summarizerAppName,
		Agent:          summarizerAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Printf("[ReviewSummarizerHandler] Failed to create runner: %v", err)
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.Printf("[ReviewSummarizerHandler] Successfully initialized with model: %s", modelName)

	return &ReviewSummarizerHandler{
		runner:         r,
		sessionService: sessionService,
		modelName:      modelName,
		timeout:        DefaultSummaryTimeout,
	}, nil
}

// SetUsageTracker enables AI usage tracking for this handler
func (h *ReviewSummarizerHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// SetLeadContext sets the lead being processed, for usage tracking
func (h *ReviewSummarizerHandler) SetLeadContext(leadID string) {
	h.leadID = &leadID
}

// ClearLeadContext clears the lead context
func (h *ReviewSummarizerHandler) ClearLeadContext() {
	h.leadID = nil
}

// buildSummarizerInstruction creates the fixed instruction for the summarizer agent
func buildSummarizerInstruction() string {
	return `You are a research assistant for an outreach team contacting local trades businesses (plumbers, electricians, roofers, builders).

Given a business name and a set of its Google Maps reviews, produce:

1. **owner_name**: The owner's name, if it can be inferred from the reviews (customers often name the person who did the work, e.g. "Dave was brilliant"). Use the most frequently mentioned name. If no name can be inferred, use "Unknown".
2. **review_summary**: A 2-4 sentence summary of what customers praise about this business. Be concrete: mention the trade, recurring compliments, and standout details. Write in plain prose, no bullet points.

IMPORTANT RULES:
- Base everything strictly on the provided reviews. Do NOT invent details.
- Never use a reviewer's own name as the owner name.
- Keep the summary under 4 sentences.

OUTPUT FORMAT:
You MUST respond with ONLY a valid JSON object in this exact format (no markdown, no code blocks, no explanations):
{"owner_name": "First Last", "review_summary": "Two to four sentences."}`
}

// Summarize condenses at most the first MaxReviewsToSummarize reviews (in
// received order) into a ReviewSummary. Zero reviews with text returns the
// fallback summary without a model call. Unparsable model output is an
// ErrValidation the caller treats as a per-lead failure.
func (h *ReviewSummarizerHandler) Summarize(ctx context.Context, businessName string, reviews []Review) (*ReviewSummary, error) {
	prompt := buildReviewPrompt(businessName, reviews)
	if prompt == "" {
		log.Printf("[ReviewSummarizerHandler] No review text found for %s, using fallback summary", businessName)
		return FallbackSummary(), nil
	}

	log.Printf("[ReviewSummarizerHandler] Summarizing %d reviews for %s", len(reviews), businessName)
	return h.run(ctx, prompt)
}

// SummarizeWebsite produces a ReviewSummary-shaped result from scraped
// homepage content. Used as the enrichment fallback when a lead has no
// reviews but does have a website.
func (h *ReviewSummarizerHandler) SummarizeWebsite(ctx context.Context, businessName, markdown string) (*ReviewSummary, error) {
	if strings.TrimSpace(markdown) == "" {
		return FallbackSummary(), nil
	}

	log.Printf("[ReviewSummarizerHandler] Summarizing website content for %s (length: %d)", businessName, len(markdown))

	// Limit content length to avoid token limits
	maxLen := 15000
	if len(markdown) > maxLen {
		markdown = markdown[:maxLen] + "\n\n[Content truncated...]"
	}

	prompt := fmt.Sprintf(`Business: %s

This business has no Google Maps reviews yet. Instead, here is the content of its website homepage. Summarize what the business does and who runs it, in the same JSON format. If the owner is named on the site, use that name.

WEBSITE CONTENT:
%s`, businessName, markdown)

	return h.run(ctx, prompt)
}

// run executes one summarization prompt and parses the result
func (h *ReviewSummarizerHandler) run(ctx context.Context, prompt string) (*ReviewSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	startTime := time.Now()
	responseText, err := runAgentPrompt(ctx, h.runner, h.sessionService, summarizerAppName, prompt)
	if err != nil {
		h.track(prompt, "", startTime, false, err)
		return nil, fmt.Errorf("summarization failed: %w", err)
	}

	summary, err := parseSummaryResponse(responseText)
	if err != nil {
		h.track(prompt, responseText, startTime, false, err)
		return nil, err
	}

	h.track(prompt, responseText, startTime, true, nil)
	return summary, nil
}

// track records the operation when a usage tracker is configured
func (h *ReviewSummarizerHandler) track(input, output string, startTime time.Time, success bool, opErr error) {
	if h.usageTracker == nil {
		return
	}
	var errMsg *string
	if opErr != nil {
		s := opErr.Error()
		errMsg = &s
	}
	h.usageTracker.TrackReviewSummary(h.leadID, h.modelName, input, output, startTime, success, errMsg)
}

// buildReviewPrompt builds the summarization prompt from at most the first
// MaxReviewsToSummarize reviews. Returns an empty string when no review has text.
func buildReviewPrompt(businessName string, reviews []Review) string {
	if len(reviews) > MaxReviewsToSummarize {
		reviews = reviews[:MaxReviewsToSummarize]
	}

	var reviewTexts []string
	for i, review := range reviews {
		if strings.TrimSpace(review.Text) == "" {
			continue
		}
		entry := fmt.Sprintf("Review %d", i+1)
		if review.Name != "" {
			entry += fmt.Sprintf(" (by %s", review.Name)
			if review.Rating > 0 {
				entry += fmt.Sprintf(", %.0f stars", review.Rating)
			}
			entry += ")"
		}
		entry += ": " + review.Text
		reviewTexts = append(reviewTexts, entry)
	}

	if len(reviewTexts) == 0 {
		return ""
	}

	return fmt.Sprintf("Business: %s\n\nReviews:\n%s", businessName, strings.Join(reviewTexts, "\n\n"))
}

// parseSummaryResponse parses the model output into a ReviewSummary.
// Output missing an owner name or summary fails with ErrValidation.
func parseSummaryResponse(response string) (*ReviewSummary, error) {
	jsonStr := extractJSONObject(cleanJSONResponse(response))
	if jsonStr == "" {
		return nil, fmt.Errorf("%w: no JSON object in summarizer response", ErrValidation)
	}

	var summary ReviewSummary
	if err := json.Unmarshal([]byte(jsonStr), &summary); err != nil {
		return nil, fmt.Errorf("%w: malformed summarizer JSON: %v", ErrValidation, err)
	}

	if strings.TrimSpace(summary.OwnerName) == "" {
		return nil, fmt.Errorf("%w: summarizer response missing owner_name", ErrValidation)
	}
	if strings.TrimSpace(summary.Summary) == "" {
		return nil, fmt.Errorf("%w: summarizer response missing review_summary", ErrValidation)
	}

	return &summary, nil
}
