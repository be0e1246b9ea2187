package slimrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/coder/websocket"
)

func (r *Router) handleWebSocketRequest(w http.ResponseWriter, req *http.Request) error {
	path := NormalizeURI(req.URL.Path)

	route, ok := r.table.WebSocketRoute(path)
	if !ok {
		r.logger.DebugContext(req.Context(), "websocket route not found", "path", path)
		r.notFound(w, req)
		return nil
	}

	origins := r.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		return fmt.Errorf("accepting websocket connection for %s: %w", path, err)
	}

	info := &ConnectionInfo{
		RemoteAddr: req.RemoteAddr,
		Headers:    req.Header,
		URL:        requestURL(req),
	}
	return r.serveSession(req.Context(), route, info, NewWebSocketConnection(conn))
}

// HandleConnection drives a session for the WebSocket route registered at
// path over a custom connection. It is meant for integrations that perform the
// handshake themselves; most applications should rely on ServeHTTP. It blocks
// until the connection closes and returns ErrRouteNotFound if no WebSocket
// route is registered at path.
func (r *Router) HandleConnection(ctx context.Context, path string, info *ConnectionInfo, connection SocketConnection) error {
	route, ok := r.table.WebSocketRoute(NormalizeURI(path))
	if !ok {
		return fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	return r.serveSession(ctx, route, info, connection)
}

func (r *Router) serveSession(ctx context.Context, route *Route, info *ConnectionInfo, connection SocketConnection) error {
	session := newSession(route.URI, info, connection)
	route.setURL(session.info.URL)
	route.addSession(session)

	r.logger.DebugContext(ctx, "websocket session opened", "uri", route.URI, "session", session.ID())

	defer func() {
		route.removeSession(session)
		_ = session.Close(StatusNormalClosure, "")
		r.logger.DebugContext(ctx, "websocket session closed", "uri", route.URI, "session", session.ID())
	}()

	if err := route.OnOpen(ctx, session); err != nil {
		_ = session.Close(StatusInternalError, "open handler failed")
		return fmt.Errorf("websocket open handler for %s: %w", route.URI, err)
	}

	for {
		msg, err := connection.Read(ctx)
		if err != nil {
			if session.IsClosed() || isCloseError(err) {
				return nil
			}
			return fmt.Errorf("reading websocket message on %s: %w", route.URI, err)
		}

		if err := route.OnMessage(ctx, session, msg); err != nil {
			r.logger.WarnContext(ctx, "websocket message handler failed",
				"uri", route.URI, "session", session.ID(), "error", err)
		}
	}
}

func isCloseError(err error) bool {
	return websocket.CloseStatus(err) != -1 ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled)
}
