package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"webstar/tradework-outreach-worker/internal/dto"

	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
)

const (
	// MaxMessageLength is the hard limit on generated message length in characters
	MaxMessageLength = 220
	// DefaultGenerationTimeout is the timeout for generating one message
	DefaultGenerationTimeout = 45 * time.Second

	generatorAppName = "message_generator"
)

// PersonalizedMessage is the generated DM opener for one lead
type PersonalizedMessage struct {
	DMOpener string `json:"dm_opener"`
}

// MessageVariants holds the template components selected for one lead.
// Selection is deterministic per place ID so reruns produce the same choice
// and tests can assert it without invoking the model.
type MessageVariants struct {
	Greeting     string
	Situational  string
	Intro        string
	CallToAction string
}

// Template option sets. The intro lines rotate so repeated sends from the
// same campaign don't all read identically.
var (
	greetingVariants = []string{
		"Hi",
		"Hey",
		"Hello",
	}

	introVariants = []string{
		"I'm Marco from Tradework - we help trades businesses turn happy customers into steady bookings.",
		"Marco here, from Tradework. We build simple marketing engines for busy tradespeople.",
		"I'm Marco at Tradework, where we help tradespeople get found by the right local customers.",
		"This is Marco with Tradework - we take care of online presence so tradespeople can stay on the tools.",
		"I'm Marco from Tradework. We turn strong local reputations into a fuller job calendar.",
	}

	ctaVariants = []string{
		"Open to a quick chat this week?",
		"Worth a 10-minute call sometime?",
		"Happy to share a couple of ideas - interested?",
	}

	situationalVariants = map[dto.CallStatus][]string{
		dto.CallStatusVoicemail: {
			"I left you a voicemail earlier and didn't want to keep ringing, so here's a quick note instead.",
			"Sorry to have missed you - I left a voicemail earlier, figured a message might be easier.",
		},
		dto.CallStatusNone: {
			"I haven't tried calling yet, thought a message might suit you better mid-job.",
			"Reaching out here first rather than interrupting your day with a call.",
		},
		dto.CallStatusOther: {
			"Following up on our earlier contact with a quick note.",
			"Just circling back after we last spoke.",
		},
	}
)

// aiMentionPattern catches messages that reference the generation process
var aiMentionPattern = regexp.MustCompile(`\bAI\b`)

// aiMentionPhrases are lowercase phrases a valid message must never contain
var aiMentionPhrases = []string{
	"as an ai",
	"ai-generated",
	"ai generated",
	"language model",
	"artificial intelligence",
	"chatbot",
	"this message was generated",
	"automatically generated",
}

// MessageGeneratorHandler generates personalized DM openers using an LLM
// agent constrained by deterministically selected template variants
type MessageGeneratorHandler struct {
	runner         *runner.Runner
	sessionService session.Service
	modelName      string
	timeout        time.Duration
	usageTracker   *UsageTrackerHandler
	leadID         *string
}

// NewMessageGeneratorHandler creates a new MessageGeneratorHandler backed by
// the given model
func NewMessageGeneratorHandler(llm model.LLM, modelName string) (*MessageGeneratorHandler, error) {
	if llm == nil {
		return nil, fmt.Errorf("model is required")
	}

	generatorAgent, err := llmagent.New(llmagent.Config{
		Name:        "message_generator_agent",
		Model:       llm,
		Description: "An AI agent that composes short personalized outreach messages for trades businesses.",
		Instruction: buildGeneratorInstruction(),
	})
	if err != nil {
		log.Printf("[MessageGeneratorHandler] Failed to create agent: %v", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        generatorAppName,
		Agent:          generatorAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Printf("[MessageGeneratorHandler] Failed to create runner: %v", err)
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	log.Printf("[MessageGeneratorHandler] Successfully initialized with model: %s", modelName)

	return &MessageGeneratorHandler{
		runner:         r,
		sessionService: sessionService,
		modelName:      modelName,
		timeout:        DefaultGenerationTimeout,
	}, nil
}

// SetUsageTracker enables AI usage tracking for this handler
func (h *MessageGeneratorHandler) SetUsageTracker(tracker *UsageTrackerHandler) {
	h.usageTracker = tracker
}

// SetLeadContext sets the lead being processed, for usage tracking
func (h *MessageGeneratorHandler) SetLeadContext(leadID string) {
	h.leadID = &leadID
}

// ClearLeadContext clears the lead context
func (h *MessageGeneratorHandler) ClearLeadContext() {
	h.leadID = nil
}

// SelectVariants deterministically picks one option from each template set,
// keyed by the lead's place ID. The same lead always gets the same variants.
func SelectVariants(placeID string, status dto.CallStatus) MessageVariants {
	situational, ok := situationalVariants[status]
	if !ok {
		situational = situationalVariants[dto.CallStatusOther]
	}

	return MessageVariants{
		Greeting:     greetingVariants[variantIndex(placeID, "greeting", len(greetingVariants))],
		Situational:  situational[variantIndex(placeID, "situational", len(situational))],
		Intro:        introVariants[variantIndex(placeID, "intro", len(introVariants))],
		CallToAction: ctaVariants[variantIndex(placeID, "cta", len(ctaVariants))],
	}
}

// variantIndex hashes the place ID with a per-slot salt so the slots rotate
// independently of each other
func variantIndex(placeID, slot string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(placeID))
	h.Write([]byte(":"))
	h.Write([]byte(slot))
	return int(h.Sum32() % uint32(n))
}

// OwnerFirstName derives the first name from the summarizer's owner field:
// the first whitespace-delimited token. "Unknown" and empty values yield an
// empty string so the message falls back to no name.
func OwnerFirstName(ownerName string) string {
	fields := strings.Fields(ownerName)
	if len(fields) == 0 {
		return ""
	}
	first := fields[0]
	if strings.EqualFold(first, "unknown") {
		return ""
	}
	return first
}

// buildGeneratorInstruction creates the fixed instruction for the generator agent
func buildGeneratorInstruction() string {
	return `You are an outreach copywriter for Tradework, an agency that does marketing for local trades businesses (plumbers, electricians, roofers, builders).

You compose short WhatsApp-style opener messages to business owners. Each request gives you the lead details, a summary of the business's Google reviews, and the exact template components to use.

HARD RULES:
- The message MUST be at most 220 characters in total.
- The message MUST explicitly mention the business's Google reviews (the phrase "Google reviews" or "Google Maps reviews").
- Address the owner by FIRST NAME ONLY when a first name is provided; otherwise use no name at all.
- Use the provided greeting, situational line, introduction line, and call to action. You may trim them for length but must keep their meaning.
- Reference ONE concrete detail from the review summary when available.
- Use "\n" line breaks to separate the opener from the call to action.
- NEVER mention AI, automation, or how the message was produced.
- No emojis, no links, no placeholder brackets.

OUTPUT FORMAT:
Respond with ONLY a valid JSON object in this exact format (no markdown, no code blocks, no explanations):
{"dm_opener": "The full message text"}`
}

// buildMessagePrompt builds the per-lead generation prompt
func buildMessagePrompt(lead dto.Lead, summary *ReviewSummary, variants MessageVariants) string {
	firstName := OwnerFirstName(summary.OwnerName)
	if firstName == "" {
		firstName = "(not known - use no name)"
	}

	return fmt.Sprintf(`Compose the opener message for this lead.

Lead:
- Business: %s
- Owner first name: %s
- Call status: %s
- Review summary: %s

Template components to use:
- Greeting: %s
- Situational line: %s
- Introduction: %s
- Call to action: %s`,
		lead.Business, firstName, lead.CallStatus, summary.Summary,
		variants.Greeting, variants.Situational, variants.Intro, variants.CallToAction)
}

// Generate produces a validated personalized message for one lead. A failed
// hard constraint is an ErrValidation the caller treats as a per-lead failure.
func (h *MessageGeneratorHandler) Generate(ctx context.Context, lead dto.Lead, summary *ReviewSummary) (*PersonalizedMessage, error) {
	if summary == nil {
		return nil, fmt.Errorf("%w: review summary is required", ErrValidation)
	}

	variants := SelectVariants(lead.PlaceID, lead.CallStatus)
	prompt := buildMessagePrompt(lead, summary, variants)

	log.Printf("[MessageGeneratorHandler] Generating message for %s (status: %s)", lead.Business, lead.CallStatus)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	startTime := time.Now()
	responseText, err := runAgentPrompt(ctx, h.runner, h.sessionService, generatorAppName, prompt)
	if err != nil {
		h.track(prompt, "", startTime, false, err)
		return nil, fmt.Errorf("message generation failed: %w", err)
	}

	message, err := parseMessageResponse(responseText)
	if err != nil {
		h.track(prompt, responseText, startTime, false, err)
		return nil, err
	}

	if err := ValidateMessage(message.DMOpener, lead.CallStatus); err != nil {
		h.track(prompt, responseText, startTime, false, err)
		return nil, err
	}

	h.track(prompt, responseText, startTime, true, nil)
	log.Printf("[MessageGeneratorHandler] Generated message for %s (%d chars)",
		lead.Business, utf8.RuneCountInString(message.DMOpener))
	return message, nil
}

// track records the operation when a usage tracker is configured
func (h *MessageGeneratorHandler) track(input, output string, startTime time.Time, success bool, opErr error) {
	if h.usageTracker == nil {
		return
	}
	var errMsg *string
	if opErr != nil {
		s := opErr.Error()
		errMsg = &s
	}
	h.usageTracker.TrackMessageGeneration(h.leadID, h.modelName, input, output, startTime, success, errMsg)
}

// parseMessageResponse parses the model output into a PersonalizedMessage
func parseMessageResponse(response string) (*PersonalizedMessage, error) {
	jsonStr := extractJSONObject(cleanJSONResponse(response))
	if jsonStr == "" {
		return nil, fmt.Errorf("%w: no JSON object in generator response", ErrValidation)
	}

	var message PersonalizedMessage
	if err := json.Unmarshal([]byte(jsonStr), &message); err != nil {
		return nil, fmt.Errorf("%w: malformed generator JSON: %v", ErrValidation, err)
	}

	if strings.TrimSpace(message.DMOpener) == "" {
		return nil, fmt.Errorf("%w: generator response missing dm_opener", ErrValidation)
	}

	return &message, nil
}

// ValidateMessage enforces the hard constraints on a generated message:
// length at most 220 characters, an explicit Google reviews mention, no
// reference to the generation process, and a voicemail mention when the lead
// was previously left a voicemail.
func ValidateMessage(text string, status dto.CallStatus) error {
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return fmt.Errorf("%w: message length %d exceeds %d characters",
			ErrValidation, utf8.RuneCountInString(text), MaxMessageLength)
	}

	lower := strings.ToLower(text)
	if !strings.Contains(lower, "google reviews") && !strings.Contains(lower, "google maps reviews") {
		return fmt.Errorf("%w: message does not mention Google reviews", ErrValidation)
	}

	for _, phrase := range aiMentionPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("%w: message references the generation process (%q)", ErrValidation, phrase)
		}
	}
	if aiMentionPattern.MatchString(text) {
		return fmt.Errorf("%w: message references AI", ErrValidation)
	}

	if status == dto.CallStatusVoicemail && !strings.Contains(lower, "voicemail") {
		return fmt.Errorf("%w: voicemail lead message does not reference the voicemail", ErrValidation)
	}

	return nil
}
