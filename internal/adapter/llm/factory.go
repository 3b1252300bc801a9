package llm

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/config"
)

// ModeMock forces the mock completer.
const ModeMock = "MOCK"

// NewCompleter returns a MockClient when LLM_MODE=MOCK or no API key is
// configured, and an OpenAIClient otherwise.
func NewCompleter(cfg *config.Config, logger *zap.Logger) Completer {
	if strings.EqualFold(cfg.LLMMode, ModeMock) {
		logger.Info("LLM_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, using mock LLM client")
		return NewMockClient()
	}
	return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout())
}
