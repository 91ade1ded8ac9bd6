package dto

import "time"

// OperationType identifies the kind of tracked external operation
type OperationType string

const (
	OperationReviewSummary     OperationType = "review_summary"
	OperationMessageGeneration OperationType = "message_generation"
	OperationWebsiteScraping   OperationType = "website_scraping"
)

// TokenPricing holds per-model pricing for cost estimation
type TokenPricing struct {
	// InputPricePerMTok is the price in USD per million input tokens
	InputPricePerMTok float64
	// OutputPricePerMTok is the price in USD per million output tokens
	OutputPricePerMTok float64
}

// DefaultTokenPricing returns the pricing table used for cost estimation.
// Prices are approximate and only used for reporting, never billing.
func DefaultTokenPricing() map[string]TokenPricing {
	return map[string]TokenPricing{
		"gemini-2.5-flash": {InputPricePerMTok: 0.30, OutputPricePerMTok: 2.50},
		"gemini-2.5-pro":   {InputPricePerMTok: 1.25, OutputPricePerMTok: 10.00},
		"openai/gpt-4.1-mini": {
			InputPricePerMTok:  0.40,
			OutputPricePerMTok: 1.60,
		},
		"google/gemini-2.5-flash": {InputPricePerMTok: 0.30, OutputPricePerMTok: 2.50},
	}
}

// UsageMetricInput is one AI/scraping operation record for the
// ai_usage_metrics table
type UsageMetricInput struct {
	RunID           string        `json:"run_id"`
	LeadID          *string       `json:"lead_id,omitempty"`
	OperationType   OperationType `json:"operation_type"`
	Model           string        `json:"model"`
	InputTokens     int           `json:"input_tokens"`
	OutputTokens    int           `json:"output_tokens"`
	TotalTokens     int           `json:"total_tokens"`
	EstimatedCostUS float64       `json:"estimated_cost_usd"`
	DurationMs      int64         `json:"duration_ms"`
	Success         bool          `json:"success"`
	ErrorMessage    *string       `json:"error_message,omitempty"`
}

// RunReportRecord is one batch run summary for the run_reports table
type RunReportRecord struct {
	RunID          string    `json:"run_id"`
	LeadsTotal     int       `json:"leads_total"`
	LeadsSkipped   int       `json:"leads_skipped"`
	LeadsProcessed int       `json:"leads_processed"`
	LeadsFailed    int       `json:"leads_failed"`
	StartedAt      time.Time `json:"started_at"`
	DurationMs     int64     `json:"duration_ms"`
	// AppendedIDs lists the place IDs personalized this run. Held for the
	// run summary log, not persisted.
	AppendedIDs []string `json:"-"`
}
