package handlers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// runAgentPrompt runs a single-turn prompt against an agent runner and
// collects the concatenated text response. Each call gets a throwaway
// session that is cleaned up afterwards.
func runAgentPrompt(ctx context.Context, r *runner.Runner, svc session.Service, appName, prompt string) (string, error) {
	userID := "system"

	createResp, err := svc.Create(ctx, &session.CreateRequest{
		AppName: appName,
		UserID:  userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	sessionID := createResp.Session.ID()
	defer func() {
		_ = svc.Delete(ctx, &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	var responseText strings.Builder
	for event, err := range r.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", err
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				if part.Text != "" {
					responseText.WriteString(part.Text)
				}
			}
		}
	}

	return responseText.String(), nil
}

// cleanJSONResponse strips markdown code fences the model sometimes wraps
// around JSON output
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// extractJSONObject returns the first top-level {...} block in the response,
// or an empty string when none is found
func extractJSONObject(response string) string {
	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return response[start : end+1]
}
