package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/adapter/llm"
	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/protocol"
)

// SystemPrompt frames every chat completion.
const SystemPrompt = `You are an AI marketing campaign assistant. You help users create targeted marketing campaigns by:
1. Analyzing their data sources (Google Ads, Facebook Pixel, Website analytics)
2. Understanding their target audience and goals
3. Recommending the right channels (Email, SMS, WhatsApp, Push notifications)
4. Generating executable campaign JSON payloads

Always respond in a helpful, conversational manner. When users ask about campaigns, provide specific recommendations based on their data sources and suggest the most effective channels for their goals.`

// SendMessage records text in the client's conversation and returns the
// assistant reply. A failed completion yields an apology that is returned
// but not recorded.
func (s *Service) SendMessage(ctx context.Context, text, clientID string) (string, error) {
	if clientID == "" {
		return "", &domain.ValidationError{Field: "client_id", Reason: "must not be empty"}
	}

	s.conversations.Append(clientID, domain.Message{Role: domain.RoleUser, Content: text})
	window := s.conversations.ContextWindow(clientID, SystemPrompt, s.config.ContextWindow)

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Messages:    window,
		MaxTokens:   s.config.LLMChatMaxTokens,
		Temperature: s.config.LLMTemperature,
	})
	if err != nil {
		s.logger.Warn("chat completion failed", zap.String("client_id", clientID), zap.Error(err))
		return fmt.Sprintf("I apologize, but I encountered an error: %v. Please try again.", err), nil
	}

	s.conversations.Append(clientID, domain.Message{Role: domain.RoleAssistant, Content: resp.Content})
	return resp.Content, nil
}

// ChatHistory returns the client's conversation in order.
func (s *Service) ChatHistory(clientID string) []domain.Message {
	return s.conversations.Get(clientID)
}

// ClearHistory drops the client's conversation.
func (s *Service) ClearHistory(clientID string) {
	s.conversations.Clear(clientID)
}

// HandleRealtimeMessage processes one inbound real-time frame from clientID
// and pushes the reply through the hub. Malformed frames and unknown types
// are ignored.
func (s *Service) HandleRealtimeMessage(ctx context.Context, clientID string, data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.logger.Debug("ignoring malformed frame", zap.String("client_id", clientID), zap.Error(err))
		return
	}
	if base.Type != protocol.TypeChatMessage {
		s.logger.Debug("ignoring frame", zap.String("client_id", clientID), zap.String("type", base.Type))
		return
	}

	var msg protocol.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Debug("ignoring malformed chat message", zap.String("client_id", clientID), zap.Error(err))
		return
	}

	reply, err := s.SendMessage(ctx, msg.Message, clientID)
	if err != nil {
		s.logger.Warn("chat message rejected", zap.String("client_id", clientID), zap.Error(err))
		return
	}

	ts := msg.Timestamp
	if ts == nil {
		ts = s.now().UTC().Format(time.RFC3339)
	}
	if err := s.hub.SendJSON(clientID, protocol.NewAIResponse(reply, ts)); err != nil {
		s.logger.Warn("failed to encode reply", zap.String("client_id", clientID), zap.Error(err))
	}
}
