// Package protocol defines the WebSocket message protocol between chat clients and the server.
package protocol

// Message types from client to server
const (
	TypeChatMessage = "chat_message"
)

// Message types from server to client
const (
	TypeAIResponse = "ai_response"
)

// BaseMessage contains the discriminator shared by every message.
type BaseMessage struct {
	Type string `json:"type"`
}

// ChatMessage is sent by the client to talk to the assistant.
// Timestamp is opaque and echoed back on the reply.
type ChatMessage struct {
	BaseMessage
	Message   string `json:"message"`
	Timestamp any    `json:"timestamp,omitempty"`
}

// AIResponse is the assistant reply to a ChatMessage.
type AIResponse struct {
	BaseMessage
	Content   string `json:"content"`
	Timestamp any    `json:"timestamp"`
}

// NewAIResponse builds an ai_response message.
func NewAIResponse(content string, timestamp any) AIResponse {
	return AIResponse{
		BaseMessage: BaseMessage{Type: TypeAIResponse},
		Content:     content,
		Timestamp:   timestamp,
	}
}
