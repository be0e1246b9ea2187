package slimrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Protocol selects which route table a route belongs to.
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "webSocket"
	// ProtocolAll is only meaningful for GetRoutes.
	ProtocolAll Protocol = "all"
)

// canonical compares case insensitively, so "websocket" and "webSocket" are
// the same protocol.
func (p Protocol) canonical() Protocol {
	switch {
	case p == "":
		return ProtocolHTTP
	case strings.EqualFold(string(p), string(ProtocolHTTP)):
		return ProtocolHTTP
	case strings.EqualFold(string(p), string(ProtocolWebSocket)):
		return ProtocolWebSocket
	case strings.EqualFold(string(p), string(ProtocolAll)):
		return ProtocolAll
	default:
		return p
	}
}

// Discovery records how a route entered the table.
type Discovery int

const (
	// Registered routes were added explicitly with AddRoute.
	Registered Discovery = iota
	// Discovered routes were created on first request under a static mount.
	Discovered
	// Generated is reserved for routes produced by build tooling.
	Generated
)

func (d Discovery) String() string {
	switch d {
	case Discovered:
		return "discovered"
	case Generated:
		return "generated"
	default:
		return "registered"
	}
}

func (d Discovery) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Discovery) UnmarshalText(text []byte) error {
	switch string(text) {
	case "registered":
		*d = Registered
	case "discovered":
		*d = Discovered
	case "generated":
		*d = Generated
	default:
		return fmt.Errorf("slimrouter: unknown discovery %q", text)
	}
	return nil
}

// OpenHandler is called once a WebSocket session is established.
type OpenHandler func(ctx context.Context, session *Session) error

// MessageHandler is called for every message received on a WebSocket
// session.
type MessageHandler func(ctx context.Context, session *Session, message *Message) error

// Route is an entry in the router's route table. The exported fields describe
// the route and are set before it is passed to AddRoute; the router fills
// NormalizedURL and ContentType for file routes. Request bookkeeping (hits,
// last seen URL and WebSocket sessions) is kept behind accessors because it
// changes while the route is being served.
type Route struct {
	URI           string
	Resolver      Resolver
	RootDirectory string
	// InputFile overrides the resolver path for rendered routes.
	InputFile     string
	NormalizedURL string
	ContentType   string
	Protocol      Protocol
	Discovery     Discovery
	// Headers are added to every response for this route.
	Headers http.Header

	// OnOpen and OnMessage are required for WebSocket routes and ignored
	// otherwise.
	OnOpen    OpenHandler
	OnMessage MessageHandler

	mu       sync.Mutex
	hits     uint64
	url      string
	sessions []*Session
}

// NewRoute creates an http route with all defaults filled.
func NewRoute(uri string, resolver Resolver) *Route {
	return &Route{
		URI:      uri,
		Resolver: resolver,
		Protocol: ProtocolHTTP,
		Headers:  http.Header{},
	}
}

// NewWebSocketRoute creates a WebSocket route with all defaults filled.
func NewWebSocketRoute(uri string, onOpen OpenHandler, onMessage MessageHandler) *Route {
	return &Route{
		URI:       uri,
		Protocol:  ProtocolWebSocket,
		Headers:   http.Header{},
		OnOpen:    onOpen,
		OnMessage: onMessage,
	}
}

// Hits returns the number of requests that resolved to this route.
func (r *Route) Hits() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits
}

// URL returns the full URL of the first request that resolved to this route.
func (r *Route) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// Sessions returns the active sessions of a WebSocket route in the order they
// were opened.
func (r *Route) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, len(r.sessions))
	copy(sessions, r.sessions)
	return sessions
}

// Snapshot returns a copy of the route that shares no mutable state with it.
func (r *Route) Snapshot() RouteSnapshot {
	r.mu.Lock()
	hits, url, sessionCount := r.hits, r.url, len(r.sessions)
	r.mu.Unlock()

	return RouteSnapshot{
		URI:           r.URI,
		Resolver:      r.Resolver.String(),
		RootDirectory: r.RootDirectory,
		InputFile:     r.InputFile,
		NormalizedURL: r.NormalizedURL,
		ContentType:   r.ContentType,
		Protocol:      r.Protocol,
		Discovery:     r.Discovery,
		Headers:       r.Headers.Clone(),
		Hits:          hits,
		URL:           url,
		Sessions:      sessionCount,
	}
}

// MarshalJSON encodes the route's snapshot.
func (r *Route) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

func (r *Route) setURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.url == "" {
		r.url = url
	}
}

func (r *Route) recordHit(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.url == "" {
		r.url = url
	}
	r.hits++
}

func (r *Route) resetSessions() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = []*Session{}
}

func (r *Route) addSession(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
}

func (r *Route) removeSession(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sessions {
		if s == session {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return
		}
	}
}

// RouteSnapshot is a serializable copy of a Route. Callable resolvers are
// rendered by Resolver.String.
type RouteSnapshot struct {
	URI           string      `json:"uri"`
	Resolver      string      `json:"resolver,omitempty"`
	RootDirectory string      `json:"rootDirectory,omitempty"`
	InputFile     string      `json:"inputFile,omitempty"`
	NormalizedURL string      `json:"normalizedUrl,omitempty"`
	ContentType   string      `json:"contentType,omitempty"`
	Protocol      Protocol    `json:"protocol"`
	Discovery     Discovery   `json:"discovered"`
	Headers       http.Header `json:"headers,omitempty"`
	Hits          uint64      `json:"hits"`
	URL           string      `json:"url,omitempty"`
	Sessions      int         `json:"sessions,omitempty"`
}

// RouteSet is the result of GetRoutes. HTTP holds copies; WebSocket holds the
// live routes so their sessions can be reached.
type RouteSet struct {
	HTTP      []RouteSnapshot `json:"http,omitempty"`
	WebSocket []*Route        `json:"websocket,omitempty"`
}
