package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallStatus(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected CallStatus
	}{
		{"empty string", "", CallStatusNone},
		{"whitespace only", "   ", CallStatusNone},
		{"none", "none", CallStatusNone},
		{"not called", "not called", CallStatusNone},
		{"not_called", "not_called", CallStatusNone},
		{"new", "new", CallStatusNone},
		{"uppercase none", "NONE", CallStatusNone},
		{"voicemail", "voicemail", CallStatusVoicemail},
		{"left voicemail", "left voicemail", CallStatusVoicemail},
		{"voice mail with space", "left a voice mail", CallStatusVoicemail},
		{"uppercase voicemail", "VOICEMAIL", CallStatusVoicemail},
		{"answered", "answered", CallStatusOther},
		{"callback requested", "callback requested", CallStatusOther},
		{"no answer", "no answer", CallStatusOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCallStatus(tt.raw))
		})
	}
}
