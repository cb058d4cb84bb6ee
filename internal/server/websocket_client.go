package server

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WebSocketClient reads request lines from and writes JSON messages to a
// renderer connection.
type WebSocketClient struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	pending []string
	writeMu sync.Mutex
}

// NewWebSocketClient wraps conn. Messages larger than maxMessageSize are
// rejected by the connection when maxMessageSize is positive.
func NewWebSocketClient(conn *websocket.Conn, maxMessageSize int64) *WebSocketClient {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &WebSocketClient{conn: conn}
}

// ReadLine blocks for the next non-empty line. A message with several lines
// is returned one line per call.
func (c *WebSocketClient) ReadLine() (string, error) {
	for {
		c.mu.Lock()
		if len(c.pending) > 0 {
			line := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()
			return line, nil
		}
		c.mu.Unlock()

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}

		var lines []string
		for _, line := range strings.Split(string(message), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		c.mu.Lock()
		c.pending = append(c.pending, lines...)
		c.mu.Unlock()
	}
}

// WriteJSON sends v as one text message.
func (c *WebSocketClient) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address for logging.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
