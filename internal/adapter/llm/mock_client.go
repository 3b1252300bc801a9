package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// MockClient is a deterministic Completer for offline runs and tests.
// Campaign prompts get a JSON draft wrapped in prose; anything else is echoed.
type MockClient struct {
	Model string
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-gpt-3.5-turbo"}
}

// Complete returns a canned completion for req.
func (m *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.ExternalError{Collaborator: "llm", Err: err}
	}

	last := lastUserMessage(req.Messages)
	var content string
	if strings.Contains(last, `"target_audience"`) {
		content = mockCampaign(last)
	} else if last == "" {
		content = "[MOCK] This is a mock response from the LLM client."
	} else {
		content = fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(last, 100))
	}

	prompt := 0
	for _, msg := range req.Messages {
		prompt += len(msg.Content) / 4
	}
	return &CompletionResponse{
		Content: content,
		Model:   m.Model,
		Usage: Usage{
			PromptTokens:     prompt,
			CompletionTokens: len(content) / 4,
			TotalTokens:      prompt + len(content)/4,
		},
	}, nil
}

func lastUserMessage(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// mockCampaign builds a draft for the channels listed on the prompt's
// "Channels:" line.
func mockCampaign(prompt string) string {
	var channels []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Channels:"); ok {
			for _, ch := range strings.Split(rest, ",") {
				if ch = strings.TrimSpace(ch); ch != "" {
					channels = append(channels, ch)
				}
			}
			break
		}
	}

	draft := domain.CampaignDraft{
		Name:        "Mock Campaign",
		Description: "Mock campaign generated offline",
		TargetAudience: domain.TargetAudience{
			Demographics: map[string]any{"age_range": "25-45"},
			Interests:    []string{"shopping"},
			Behavior:     []string{"recent_visitors"},
		},
		Channels: make([]domain.ChannelConfig, 0, len(channels)),
		ExecutionPlan: domain.ExecutionPlan{
			Schedule: domain.ScheduleImmediate,
			Metrics:  []string{"open_rate", "conversion_rate"},
		},
	}
	for _, ch := range channels {
		draft.Channels = append(draft.Channels, domain.ChannelConfig{
			Type:            ch,
			Content:         fmt.Sprintf("[MOCK] %s message", ch),
			Timing:          "optimal_time",
			Personalization: map[string]any{},
		})
	}

	body, _ := json.MarshalIndent(draft, "", "  ")
	return "[MOCK] Here is your campaign:\n" + string(body) + "\nLet me know if you want changes."
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// FailingClient always fails with Err.
type FailingClient struct {
	Err error
}

func (f *FailingClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return nil, &domain.ExternalError{Collaborator: "llm", Err: f.Err}
}
