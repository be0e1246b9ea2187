package slimrouter

import (
	"context"

	"github.com/coder/websocket"
)

// MessageType is the frame type of a WebSocket message.
type MessageType = websocket.MessageType

const (
	MessageText   MessageType = websocket.MessageText
	MessageBinary MessageType = websocket.MessageBinary
)

// Message is a single WebSocket message.
type Message struct {
	Type MessageType
	Data []byte
}

// Text returns the message payload as a string.
func (m *Message) Text() string {
	return string(m.Data)
}

// SocketConnection is the connection a Session reads from and writes to.
// WebSocketConnection is the implementation used for upgraded http requests;
// other implementations can be driven through Router.HandleConnection.
type SocketConnection interface {
	Read(ctx context.Context) (*Message, error)
	Write(ctx context.Context, msg *Message) error
	Close(status Status, reason string) error
}

// WebSocketConnection is a SocketConnection implementation that wraps
// github.com/coder/websocket.Conn.
type WebSocketConnection struct {
	webSocketConnection *websocket.Conn
}

var _ SocketConnection = &WebSocketConnection{}

// NewWebSocketConnection creates a WebSocketConnection from a
// github.com/coder/websocket.Conn.
func NewWebSocketConnection(websocketConnection *websocket.Conn) *WebSocketConnection {
	return &WebSocketConnection{
		webSocketConnection: websocketConnection,
	}
}

// Read blocks until the next message arrives or an error occurs.
func (c *WebSocketConnection) Read(ctx context.Context) (*Message, error) {
	messageType, data, err := c.webSocketConnection.Read(ctx)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type: messageType,
		Data: data,
	}, nil
}

func (c *WebSocketConnection) Write(ctx context.Context, msg *Message) error {
	return c.webSocketConnection.Write(ctx, msg.Type, msg.Data)
}

func (c *WebSocketConnection) Close(status Status, reason string) error {
	return c.webSocketConnection.Close(status, reason)
}
