package handlers

import (
	"log"
	"time"

	"webstar/tradework-outreach-worker/internal/dto"
)

// CharsPerToken is the approximate number of characters per token for estimation
const CharsPerToken = 4

// UsageTrackerHandler tracks AI usage metrics for a run. Tracking failures
// are logged and swallowed; the pipeline never fails because of them.
type UsageTrackerHandler struct {
	supabase *SupabaseHandler
	runID    string
	pricing  map[string]dto.TokenPricing
}

// NewUsageTrackerHandler creates a new UsageTrackerHandler scoped to one run
func NewUsageTrackerHandler(supabase *SupabaseHandler, runID string) *UsageTrackerHandler {
	return &UsageTrackerHandler{
		supabase: supabase,
		runID:    runID,
		pricing:  dto.DefaultTokenPricing(),
	}
}

// EstimateTokens estimates token count from text length
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// CalculateCost calculates the estimated cost for a given operation
func (h *UsageTrackerHandler) CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := h.pricing[model]
	if !ok {
		// Default to flash pricing if model not found
		pricing = h.pricing["gemini-2.5-flash"]
	}

	inputCost := float64(inputTokens) * pricing.InputPricePerMTok / 1_000_000
	outputCost := float64(outputTokens) * pricing.OutputPricePerMTok / 1_000_000

	return inputCost + outputCost
}

// TrackOperationInput contains the data needed to track an operation
type TrackOperationInput struct {
	LeadID        *string
	OperationType dto.OperationType
	Model         string
	InputText     string
	OutputText    string
	StartTime     time.Time
	Success       bool
	ErrorMessage  *string
}

// TrackOperation records an AI operation for usage tracking
func (h *UsageTrackerHandler) TrackOperation(input TrackOperationInput) error {
	if h.supabase == nil {
		return nil
	}

	inputTokens := EstimateTokens(input.InputText)
	outputTokens := EstimateTokens(input.OutputText)
	totalTokens := inputTokens + outputTokens
	durationMs := time.Since(input.StartTime).Milliseconds()
	cost := h.CalculateCost(input.Model, inputTokens, outputTokens)

	metric := dto.UsageMetricInput{
		RunID:           h.runID,
		LeadID:          input.LeadID,
		OperationType:   input.OperationType,
		Model:           input.Model,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		TotalTokens:     totalTokens,
		EstimatedCostUS: cost,
		DurationMs:      durationMs,
		Success:         input.Success,
		ErrorMessage:    input.ErrorMessage,
	}

	if err := h.supabase.InsertUsageMetric(&metric); err != nil {
		log.Printf("[UsageTracker] Failed to insert usage metric: %v", err)
		return err
	}

	log.Printf("[UsageTracker] Tracked %s: tokens=%d (in=%d, out=%d), cost=$%.6f, duration=%dms, success=%v",
		input.OperationType, totalTokens, inputTokens, outputTokens, cost, durationMs, input.Success)

	return nil
}

// TrackReviewSummary is a convenience method for tracking summarization operations
func (h *UsageTrackerHandler) TrackReviewSummary(leadID *string, model, inputText, outputText string, startTime time.Time, success bool, errorMsg *string) {
	_ = h.TrackOperation(TrackOperationInput{
		LeadID:        leadID,
		OperationType: dto.OperationReviewSummary,
		Model:         model,
		InputText:     inputText,
		OutputText:    outputText,
		StartTime:     startTime,
		Success:       success,
		ErrorMessage:  errorMsg,
	})
}

// TrackMessageGeneration is a convenience method for tracking message generation operations
func (h *UsageTrackerHandler) TrackMessageGeneration(leadID *string, model, inputText, outputText string, startTime time.Time, success bool, errorMsg *string) {
	_ = h.TrackOperation(TrackOperationInput{
		LeadID:        leadID,
		OperationType: dto.OperationMessageGeneration,
		Model:         model,
		InputText:     inputText,
		OutputText:    outputText,
		StartTime:     startTime,
		Success:       success,
		ErrorMessage:  errorMsg,
	})
}

// TrackWebsiteScraping records a fallback homepage scrape. There are no AI
// tokens involved, only the operation and its outcome.
func (h *UsageTrackerHandler) TrackWebsiteScraping(leadID *string, outputSize int, startTime time.Time, success bool, errorMsg *string) {
	if h.supabase == nil {
		return
	}

	metric := dto.UsageMetricInput{
		RunID:         h.runID,
		LeadID:        leadID,
		OperationType: dto.OperationWebsiteScraping,
		Model:         "firecrawl",
		OutputTokens:  outputSize / CharsPerToken,
		TotalTokens:   outputSize / CharsPerToken,
		DurationMs:    time.Since(startTime).Milliseconds(),
		Success:       success,
		ErrorMessage:  errorMsg,
	}

	if err := h.supabase.InsertUsageMetric(&metric); err != nil {
		log.Printf("[UsageTracker] Failed to insert scraping metric: %v", err)
	}
}
