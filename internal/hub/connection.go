package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SendBufferSize is the number of outbound frames a Connection queues.
const SendBufferSize = 256

var (
	// ErrBufferFull is returned when the send buffer is full.
	ErrBufferFull = errors.New("send buffer full")
	// ErrConnectionClosed is returned when sending on a shut down connection.
	ErrConnectionClosed = errors.New("connection closed")
)

// Connection is a WebSocket-backed Channel. Send only queues; a writer
// goroutine drains Outbound onto the socket.
type Connection struct {
	ClientID string
	Conn     *websocket.Conn

	send    chan []byte
	mu      sync.Mutex
	closed  bool
	writeMu sync.Mutex
}

// NewConnection wraps ws for clientID.
func NewConnection(clientID string, ws *websocket.Conn) *Connection {
	return &Connection{
		ClientID: clientID,
		Conn:     ws,
		send:     make(chan []byte, SendBufferSize),
	}
}

// Send queues data for the writer.
func (c *Connection) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Outbound is the queue drained by the writer goroutine. It is closed by Shutdown.
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

// Shutdown stops accepting frames and closes the outbound queue. Safe to call twice.
func (c *Connection) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
