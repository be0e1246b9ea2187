package slimrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ConnectionInfo describes the request a WebSocket session was opened from.
type ConnectionInfo struct {
	RemoteAddr string
	Headers    http.Header
	URL        string
}

// Session is an open WebSocket connection on a WebSocket route. The router
// keeps every open session in its route's session list until the connection
// closes.
type Session struct {
	id           string
	routeURI     string
	info         *ConnectionInfo
	connection   SocketConnection
	messagesSent atomic.Uint64

	valuesMu sync.Mutex
	values   map[string]any

	closeMu     sync.Mutex
	closed      bool
	closeStatus Status
	closeReason string
}

func newSession(routeURI string, info *ConnectionInfo, connection SocketConnection) *Session {
	if info == nil {
		info = &ConnectionInfo{}
	}
	return &Session{
		id:         uuid.NewString(),
		routeURI:   routeURI,
		info:       info,
		connection: connection,
		values:     map[string]any{},
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// RouteURI returns the URI of the route the session belongs to.
func (s *Session) RouteURI() string {
	return s.routeURI
}

func (s *Session) RemoteAddr() string {
	return s.info.RemoteAddr
}

// Headers returns the headers of the upgrade request.
func (s *Session) Headers() http.Header {
	return s.info.Headers
}

// MessagesSent returns the number of messages sent with Send.
func (s *Session) MessagesSent() uint64 {
	return s.messagesSent.Load()
}

// Send writes data to the client. Byte slices are sent as binary messages,
// strings as text messages and anything else as JSON text messages.
func (s *Session) Send(ctx context.Context, data any) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}

	msg := &Message{Type: MessageText}
	switch v := data.(type) {
	case []byte:
		msg.Type = MessageBinary
		msg.Data = v
	case string:
		msg.Data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		msg.Data = encoded
	}

	if err := s.connection.Write(ctx, msg); err != nil {
		return err
	}
	s.messagesSent.Add(1)
	return nil
}

// Set stores a value on the session.
func (s *Session) Set(key string, value any) {
	s.valuesMu.Lock()
	defer s.valuesMu.Unlock()
	s.values[key] = value
}

// Get retrieves a value stored with Set.
func (s *Session) Get(key string) (any, bool) {
	s.valuesMu.Lock()
	defer s.valuesMu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Close closes the connection with the given status and reason. Calling Close
// more than once has no effect.
func (s *Session) Close(status Status, reason string) error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.closeStatus = status
	s.closeReason = reason
	return s.connection.Close(status, reason)
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}
