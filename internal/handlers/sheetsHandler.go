package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"webstar/tradework-outreach-worker/internal/dto"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// outputHeaders is the header row created in an empty output worksheet.
// The first column is the dedup key.
var outputHeaders = []interface{}{"ID", "Phone", "Message"}

// SheetsHandler handles reading leads and appending personalization rows
// using the Google Sheets API
type SheetsHandler struct {
	service         *sheets.Service
	sheetID         string
	sheetName       string
	outputSheetName string
}

// NewSheetsHandler creates a new SheetsHandler instance authenticated with a
// service-account credentials file
func NewSheetsHandler(ctx context.Context, sheetID, sheetName, outputSheetName, credentialsFile string) (*SheetsHandler, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("sheet ID is required")
	}
	if sheetName == "" {
		return nil, fmt.Errorf("sheet name is required")
	}

	log.Printf("[SheetsHandler] Initializing for sheet: %s (worksheet: %s)", sheetID, sheetName)

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		log.Printf("[SheetsHandler] Failed to create Sheets service: %v", err)
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	log.Printf("[SheetsHandler] Successfully created Sheets client")

	return &SheetsHandler{
		service:         service,
		sheetID:         sheetID,
		sheetName:       sheetName,
		outputSheetName: outputSheetName,
	}, nil
}

// ListLeads reads all rows from the source worksheet and maps them to Leads.
// Rows missing a required field (place id, business name, phone) are skipped
// with a logged warning. A backend error is fatal for the run.
func (h *SheetsHandler) ListLeads(ctx context.Context) ([]dto.Lead, error) {
	log.Printf("[SheetsHandler] Reading leads from worksheet: %s", h.sheetName)

	resp, err := h.service.Spreadsheets.Values.Get(h.sheetID, h.sheetName).Context(ctx).Do()
	if err != nil {
		log.Printf("[SheetsHandler] Failed to read leads: %v", err)
		return nil, fmt.Errorf("failed to read leads from sheet: %w", err)
	}

	if len(resp.Values) < 2 {
		log.Printf("[SheetsHandler] No data rows found in worksheet %s", h.sheetName)
		return nil, nil
	}

	headers := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(cellString(v)))
	}

	var leads []dto.Lead
	for i, row := range resp.Values[1:] {
		lead, err := leadFromRow(headers, row)
		if err != nil {
			log.Printf("[SheetsHandler] Skipping malformed row %d: %v", i+2, err)
			continue
		}
		leads = append(leads, lead)
	}

	log.Printf("[SheetsHandler] Successfully read %d leads (%d rows skipped)",
		len(leads), len(resp.Values)-1-len(leads))
	return leads, nil
}

// ListProcessedIDs reads the identifier column of the output worksheet and
// returns the set of already-processed place IDs. An empty or missing
// worksheet yields an empty set.
func (h *SheetsHandler) ListProcessedIDs(ctx context.Context) (map[string]struct{}, error) {
	log.Printf("[SheetsHandler] Reading processed IDs from worksheet: %s", h.outputSheetName)

	rng := fmt.Sprintf("%s!A:A", h.outputSheetName)
	resp, err := h.service.Spreadsheets.Values.Get(h.sheetID, rng).Context(ctx).Do()
	if err != nil {
		log.Printf("[SheetsHandler] Failed to read processed IDs: %v", err)
		return nil, fmt.Errorf("failed to read processed IDs: %w", err)
	}

	processed := make(map[string]struct{})
	for i, row := range resp.Values {
		if i == 0 {
			continue // header row
		}
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(cellString(row[0]))
		if id != "" {
			processed[id] = struct{}{}
		}
	}

	log.Printf("[SheetsHandler] Found %d already-processed lead IDs", len(processed))
	return processed, nil
}

// AppendPersonalization appends one result row to the output worksheet.
// The header row is created first when the worksheet is empty. A rejected
// write is surfaced to the caller and not retried.
func (h *SheetsHandler) AppendPersonalization(ctx context.Context, rec dto.LeadPersonalization) error {
	log.Printf("[SheetsHandler] Appending personalization for lead ID: %s", rec.PlaceID)

	if err := h.ensureOutputHeaders(ctx); err != nil {
		return err
	}

	vr := &sheets.ValueRange{
		Values: [][]interface{}{{rec.PlaceID, rec.Phone, rec.Message}},
	}
	_, err := h.service.Spreadsheets.Values.Append(h.sheetID, h.outputSheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		log.Printf("[SheetsHandler] Failed to append personalization: %v", err)
		return fmt.Errorf("failed to append personalization row: %w", err)
	}

	log.Printf("[SheetsHandler] Appended new row for lead ID: %s", rec.PlaceID)
	return nil
}

// ensureOutputHeaders writes the header row when the output worksheet is empty
func (h *SheetsHandler) ensureOutputHeaders(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:C1", h.outputSheetName)
	resp, err := h.service.Spreadsheets.Values.Get(h.sheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to check output headers: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{outputHeaders}}
	_, err = h.service.Spreadsheets.Values.Update(h.sheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to create output headers: %w", err)
	}

	log.Printf("[SheetsHandler] Created headers in %s worksheet", h.outputSheetName)
	return nil
}

// leadFromRow maps one sheet row to a Lead using the lowercased header names.
// It returns an error when a required field is missing.
func leadFromRow(headers []string, row []interface{}) (dto.Lead, error) {
	fields := make(map[string]string, len(headers))
	for i, name := range headers {
		if i >= len(row) {
			break
		}
		fields[name] = strings.TrimSpace(cellString(row[i]))
	}

	placeID := fields["id"]
	if placeID == "" {
		placeID = fields["place_id"]
	}

	lead := dto.Lead{
		PlaceID:    placeID,
		Business:   fields["business"],
		Phone:      fields["phone"],
		Email:      fields["email"],
		Website:    fields["website"],
		Instagram:  fields["instagram"],
		Facebook:   fields["facebook"],
		LinkedIn:   fields["linkedin"],
		Address:    fields["address"],
		CallStatus: dto.ParseCallStatus(fields["call_status"]),
		Notes:      fields["notes"],
	}

	switch {
	case lead.PlaceID == "":
		return dto.Lead{}, fmt.Errorf("missing place id")
	case lead.Business == "":
		return dto.Lead{}, fmt.Errorf("missing business name")
	case lead.Phone == "":
		return dto.Lead{}, fmt.Errorf("missing phone number")
	}

	return lead, nil
}

// cellString converts a sheet cell value to a string
func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
