// Package openrouter provides an OpenRouter model implementation for Google ADK.
// OpenRouter exposes an OpenAI-compatible API that supports 100+ LLM models.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	// DefaultBaseURL is the OpenRouter API endpoint
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout for API requests
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenRouter model
type Config struct {
	// APIKey is the OpenRouter API key (required)
	APIKey string
	// BaseURL is the API base URL (defaults to OpenRouter)
	BaseURL string
	// HTTPClient allows custom HTTP client (optional)
	HTTPClient *http.Client
	// Timeout for requests (defaults to 120s)
	Timeout time.Duration
	// SiteName is sent as X-Title header for OpenRouter rankings (optional)
	SiteName string
	// SiteURL is sent as HTTP-Referer for OpenRouter rankings (optional)
	SiteURL string
}

// Model implements the ADK model.LLM interface for OpenRouter
type Model struct {
	name       string
	config     Config
	httpClient *http.Client
}

// NewModel creates a new OpenRouter model instance
func NewModel(ctx context.Context, modelName string, config *Config) (*Model, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("modelName is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Model{
		name: modelName,
		config: Config{
			APIKey:     config.APIKey,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
			Timeout:    timeout,
			SiteName:   config.SiteName,
			SiteURL:    config.SiteURL,
		},
		httpClient: httpClient,
	}, nil
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// GenerateContent implements the model.LLM interface. The worker always
// runs its agents with streaming disabled, so streaming requests are
// served as a single complete response.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq, err := m.convertRequest(req)
		if err != nil {
			yield(nil, fmt.Errorf("failed to convert request: %w", err))
			return
		}

		limiter := GetGlobalRateLimiter()
		if err := limiter.Acquire(ctx); err != nil {
			yield(nil, err)
			return
		}
		defer limiter.Release()

		respBody, err := m.doRequest(ctx, chatReq)
		if err != nil {
			yield(nil, err)
			return
		}
		defer respBody.Close()

		var resp chatResponse
		if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
			yield(nil, fmt.Errorf("failed to decode response: %w", err))
			return
		}

		if resp.Error != nil {
			yield(nil, fmt.Errorf("OpenRouter API error: %s (code: %v)", resp.Error.Message, resp.Error.Code))
			return
		}

		yield(m.convertResponse(&resp), nil)
	}
}

// doRequest performs the HTTP request
func (m *Model) doRequest(ctx context.Context, req *chatRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.config.APIKey)

	// OpenRouter-specific headers
	if m.config.SiteName != "" {
		httpReq.Header.Set("X-Title", m.config.SiteName)
	}
	if m.config.SiteURL != "" {
		httpReq.Header.Set("HTTP-Referer", m.config.SiteURL)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return resp.Body, nil
}

// convertRequest converts ADK LLMRequest to OpenAI format
func (m *Model) convertRequest(req *model.LLMRequest) (*chatRequest, error) {
	messages := make([]chatMessage, 0, len(req.Contents))

	for _, content := range req.Contents {
		msg := chatMessage{
			Role: convertRole(content.Role),
		}

		var textParts []string
		for _, part := range content.Parts {
			if part.Text != "" {
				textParts = append(textParts, part.Text)
			}
		}
		if len(textParts) > 0 {
			msg.Content = strings.Join(textParts, "\n")
		}

		messages = append(messages, msg)
	}

	chatReq := &chatRequest{
		Model:    m.name,
		Messages: messages,
	}

	// Apply generation config
	if req.Config != nil {
		if req.Config.Temperature != nil {
			chatReq.Temperature = req.Config.Temperature
		}
		if req.Config.TopP != nil {
			chatReq.TopP = req.Config.TopP
		}
		if req.Config.MaxOutputTokens != 0 {
			maxTokens := req.Config.MaxOutputTokens
			chatReq.MaxTokens = &maxTokens
		}
		if req.Config.StopSequences != nil {
			chatReq.Stop = req.Config.StopSequences
		}
	}

	return chatReq, nil
}

// convertResponse converts OpenAI response to ADK LLMResponse
func (m *Model) convertResponse(resp *chatResponse) *model.LLMResponse {
	llmResp := &model.LLMResponse{
		TurnComplete: true,
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]

		content := &genai.Content{
			Role:  "model",
			Parts: []*genai.Part{},
		}

		if choice.Message.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{
				Text: choice.Message.Content,
			})
		}

		llmResp.Content = content
		llmResp.FinishReason = convertFinishReason(choice.FinishReason)
	}

	if resp.Usage != nil {
		llmResp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		}
	}

	return llmResp
}

func convertRole(role string) string {
	switch role {
	case "model":
		return "assistant"
	case "user":
		return "user"
	case "system":
		return "system"
	default:
		return role
	}
}

func convertFinishReason(reason string) genai.FinishReason {
	switch reason {
	case "stop":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}
