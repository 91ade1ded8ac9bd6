package handlers

import (
	"fmt"
	"log"
	"time"

	"webstar/tradework-outreach-worker/internal/dto"

	"github.com/supabase-community/supabase-go"
)

// Table names for run observability
const (
	usageMetricsTable = "ai_usage_metrics"
	runReportsTable   = "run_reports"
)

// SupabaseHandler persists run reports and AI usage metrics. It is optional:
// when Supabase is not configured the worker runs without observability.
type SupabaseHandler struct {
	client *supabase.Client
}

// NewSupabaseHandler creates a new SupabaseHandler instance
// url is the Supabase project URL (e.g., "https://xxx.supabase.co")
// key is the Supabase service role key
func NewSupabaseHandler(url, key string) (*SupabaseHandler, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("supabase key is required")
	}

	log.Printf("[SupabaseHandler] Initializing with URL: %s", url)

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to create client: %v", err)
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	log.Printf("[SupabaseHandler] Successfully created Supabase client")

	return &SupabaseHandler{
		client: client,
	}, nil
}

// InsertUsageMetric records one AI or scraping operation
func (h *SupabaseHandler) InsertUsageMetric(metric *dto.UsageMetricInput) error {
	insertData := map[string]interface{}{
		"run_id":             metric.RunID,
		"operation_type":     string(metric.OperationType),
		"model":              metric.Model,
		"input_tokens":       metric.InputTokens,
		"output_tokens":      metric.OutputTokens,
		"total_tokens":       metric.TotalTokens,
		"estimated_cost_usd": metric.EstimatedCostUS,
		"duration_ms":        metric.DurationMs,
		"success":            metric.Success,
	}
	if metric.LeadID != nil {
		insertData["lead_id"] = *metric.LeadID
	}
	if metric.ErrorMessage != nil {
		insertData["error_message"] = *metric.ErrorMessage
	}

	_, _, err := h.client.From(usageMetricsTable).Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert usage metric: %v", err)
		return fmt.Errorf("failed to insert usage metric: %w", err)
	}

	return nil
}

// InsertRunReport records the summary of one batch run
func (h *SupabaseHandler) InsertRunReport(report *dto.RunReportRecord) error {
	log.Printf("[SupabaseHandler] InsertRunReport: run_id=%s, processed=%d", report.RunID, report.LeadsProcessed)

	insertData := map[string]interface{}{
		"run_id":          report.RunID,
		"leads_total":     report.LeadsTotal,
		"leads_skipped":   report.LeadsSkipped,
		"leads_processed": report.LeadsProcessed,
		"leads_failed":    report.LeadsFailed,
		"started_at":      report.StartedAt.UTC().Format(time.RFC3339),
		"duration_ms":     report.DurationMs,
	}

	_, _, err := h.client.From(runReportsTable).Insert(insertData, false, "", "", "").Execute()
	if err != nil {
		log.Printf("[SupabaseHandler] Failed to insert run report: %v", err)
		return fmt.Errorf("failed to insert run report: %w", err)
	}

	log.Printf("[SupabaseHandler] Run report inserted successfully")
	return nil
}
