// Package llm provides the generative completion collaborator.
package llm

import (
	"context"

	"github.com/xiaot623/gogo/marketing/internal/domain"
)

// Completer turns an ordered message list into a completion.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a chat completion request.
type CompletionRequest struct {
	Messages    []domain.Message
	MaxTokens   int
	Temperature float32
}

// CompletionResponse is the collaborator's reply.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage reports token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ensure implementations satisfy Completer.
var (
	_ Completer = (*OpenAIClient)(nil)
	_ Completer = (*MockClient)(nil)
	_ Completer = (*FailingClient)(nil)
)
