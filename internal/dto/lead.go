package dto

import "strings"

// CallStatus represents the outreach history recorded for a lead.
// It drives which message template variant is used.
type CallStatus string

const (
	// CallStatusNone means the lead has not been called yet
	CallStatusNone CallStatus = "none"
	// CallStatusVoicemail means a call was made and went to voicemail
	CallStatusVoicemail CallStatus = "voicemail"
	// CallStatusOther covers any other recorded outcome (answered, callback requested, etc.)
	CallStatusOther CallStatus = "other"
)

// ParseCallStatus maps the free-text call_status column to a CallStatus.
// Empty values and "not called" variants map to CallStatusNone; anything
// mentioning voicemail maps to CallStatusVoicemail; every other non-empty
// value maps to CallStatusOther.
func ParseCallStatus(raw string) CallStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "" || s == "none" || s == "not called" || s == "not_called" || s == "new":
		return CallStatusNone
	case strings.Contains(s, "voicemail") || strings.Contains(s, "voice mail"):
		return CallStatusVoicemail
	default:
		return CallStatusOther
	}
}

// Lead represents a prospective customer business read from the source sheet.
// Leads are immutable once read; enrichment data (owner name, review summary)
// is carried alongside in separate structures, never merged back into the row.
type Lead struct {
	// PlaceID is the external Google place identifier, unique per lead
	PlaceID string `json:"place_id"`
	// Business is the business display name
	Business string `json:"business"`
	// Phone is the primary contact number
	Phone string `json:"phone"`
	// Email is optional
	Email string `json:"email,omitempty"`
	// Website is optional, used for the no-reviews fallback enrichment
	Website string `json:"website,omitempty"`
	// Social links
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	// Address is the business address
	Address string `json:"address,omitempty"`
	// CallStatus is the categorical outreach history
	CallStatus CallStatus `json:"call_status"`
	// Notes is free-text operator notes
	Notes string `json:"notes,omitempty"`
}

// LeadPersonalization is the output record appended to the personalization
// worksheet. PlaceID uniqueness in the output worksheet is the sole
// deduplication key.
type LeadPersonalization struct {
	PlaceID string `json:"place_id"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}
