package openrouter

// OpenAI-compatible request/response types for the OpenRouter chat
// completions API. Only the non-streaming, text-only subset the worker's
// agents need is modeled.

// chatRequest represents the request body for OpenRouter chat completions
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	MaxTokens   *int32        `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// chatMessage represents a message in the conversation
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

// chatResponse represents the response from OpenRouter
type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
	Error   *apiError    `json:"error,omitempty"`
}

// chatChoice represents a choice in the response
type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chatUsage represents token usage information
type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// apiError represents an API error
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}
