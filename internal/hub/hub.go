// Package hub tracks the live real-time channel of every chat client.
package hub

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/shard"
)

// Channel is a delivery endpoint for one client. Implementations must be
// comparable (pointer types) so a stale channel can be told apart from its
// replacement.
type Channel interface {
	Send(data []byte) error
}

// shutdowner is implemented by channels that own a transport which must be
// torn down once the hub drops them.
type shutdowner interface {
	Shutdown()
}

// Hub maps client ids to their single live channel.
type Hub struct {
	channels *shard.Map[Channel]
	logger   *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		channels: shard.New[Channel](),
		logger:   logger,
	}
}

// Open registers ch as the live channel for clientID, dropping any prior one.
func (h *Hub) Open(clientID string, ch Channel) {
	h.channels.Set(clientID, ch)
	h.logger.Debug("channel opened", zap.String("client_id", clientID))
}

// Close removes the channel registered for clientID, if any.
func (h *Hub) Close(clientID string) {
	if h.channels.Delete(clientID) {
		h.logger.Debug("channel closed", zap.String("client_id", clientID))
	}
}

// CloseChannel removes clientID only while ch is still its registered channel.
// A connection that was already replaced must not evict its successor.
func (h *Hub) CloseChannel(clientID string, ch Channel) bool {
	return h.channels.DeleteIf(clientID, func(cur Channel) bool { return cur == ch })
}

// Send delivers data to clientID. Delivery is best-effort: a failing channel
// is removed and the error is swallowed.
func (h *Hub) Send(clientID string, data []byte) {
	ch, ok := h.channels.Get(clientID)
	if !ok {
		return
	}
	h.deliver(clientID, ch, data)
}

// SendJSON marshals v and sends it to clientID.
func (h *Hub) SendJSON(clientID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Send(clientID, data)
	return nil
}

// Broadcast delivers data to every registered channel. A failure only
// affects its own recipient.
func (h *Hub) Broadcast(data []byte) {
	h.channels.Range(func(clientID string, ch Channel) bool {
		h.deliver(clientID, ch, data)
		return true
	})
}

// BroadcastJSON marshals v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ListActive returns a point-in-time snapshot of connected client ids.
func (h *Hub) ListActive() []string {
	ids := h.channels.Keys()
	if ids == nil {
		return []string{}
	}
	return ids
}

// Count returns the number of live channels.
func (h *Hub) Count() int {
	return h.channels.Len()
}

// deliver runs with no shard lock held.
func (h *Hub) deliver(clientID string, ch Channel, data []byte) {
	if err := ch.Send(data); err != nil {
		if h.CloseChannel(clientID, ch) {
			h.logger.Warn("dropping dead channel",
				zap.String("client_id", clientID),
				zap.Error(err),
			)
			if s, ok := ch.(shutdowner); ok {
				s.Shutdown()
			}
		}
	}
}
