package handlers

import "errors"

// Sentinel errors used to classify per-lead failures. Callers check them
// with errors.Is; a provider failure degrades to an empty review set while
// a validation failure skips the lead.
var (
	// ErrProvider indicates the review provider call failed; the caller
	// degrades to an empty review set
	ErrProvider = errors.New("review provider request failed")
	// ErrValidation indicates model output failed schema or content checks
	ErrValidation = errors.New("model output failed validation")
)
