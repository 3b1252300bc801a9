// Package conversation keeps the per-client chat history that feeds model context.
package conversation

import (
	"sync"

	"github.com/xiaot623/gogo/marketing/internal/domain"
	"github.com/xiaot623/gogo/marketing/internal/shard"
)

// DefaultWindow is the number of history messages included in a context window.
const DefaultWindow = 10

type history struct {
	mu       sync.Mutex
	messages []domain.Message
}

// Store holds unbounded per-client histories.
type Store struct {
	histories *shard.Map[*history]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{histories: shard.New[*history]()}
}

func (s *Store) historyFor(clientID string) *history {
	return s.histories.GetOrCreate(clientID, func() *history { return &history{} })
}

// Append adds msg to the client's history.
func (s *Store) Append(clientID string, msg domain.Message) {
	h := s.historyFor(clientID)
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
}

// ContextWindow returns the system prompt followed by the last limit messages,
// oldest first. A non-positive limit falls back to DefaultWindow.
func (s *Store) ContextWindow(clientID, systemPrompt string, limit int) []domain.Message {
	if limit <= 0 {
		limit = DefaultWindow
	}
	window := []domain.Message{{Role: domain.RoleSystem, Content: systemPrompt}}

	h, ok := s.histories.Get(clientID)
	if !ok {
		return window
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	start := max(len(h.messages)-limit, 0)
	return append(window, h.messages[start:]...)
}

// Clear empties the client's history.
func (s *Store) Clear(clientID string) {
	h, ok := s.histories.Get(clientID)
	if !ok {
		return
	}
	h.mu.Lock()
	h.messages = nil
	h.mu.Unlock()
}

// Get returns a copy of the full history.
func (s *Store) Get(clientID string) []domain.Message {
	h, ok := s.histories.Get(clientID)
	if !ok {
		return []domain.Message{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.Message, len(h.messages))
	copy(out, h.messages)
	return out
}
