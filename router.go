package slimrouter

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Router resolves http requests against its route table and upgrades
// WebSocket requests for registered WebSocket routes. It implements
// http.Handler so it can be served by Go's standard HTTP server, and it can be
// used as middleware in a Navaros router via Middleware.
type Router struct {
	rootDirectory    string
	headers          http.Header
	handleWebSockets bool
	origins          []string
	table            RouteTable
	pipeline         *Pipeline
	content          ContentResolver
	logger           *slog.Logger
}

var _ http.Handler = &Router{}

// Option configures a Router.
type Option func(*Router)

// WithRootDirectory sets the default root directory for file routes and
// static mounts that do not carry their own.
func WithRootDirectory(rootDirectory string) Option {
	return func(r *Router) {
		r.rootDirectory = filepath.Clean(rootDirectory)
	}
}

// WithHeaders sets headers that are added to every http response.
func WithHeaders(headers http.Header) Option {
	return func(r *Router) {
		r.headers = headers.Clone()
	}
}

// WithWebSockets enables or disables WebSocket upgrades. When disabled,
// upgrade requests are handled like any other http request.
func WithWebSockets(enabled bool) Option {
	return func(r *Router) {
		r.handleWebSockets = enabled
	}
}

// WithOrigins configures the allowed origin patterns for WebSocket
// handshakes. If not set, all origins are allowed.
//
// Origin patterns support wildcards, for example:
//   - "https://example.com" - exact match
//   - "https://*.example.com" - subdomain wildcard
//   - "*" - allow all origins (default)
func WithOrigins(origins ...string) Option {
	return func(r *Router) {
		r.origins = origins
	}
}

// WithRouteTable replaces the default MemoryTable.
func WithRouteTable(table RouteTable) Option {
	return func(r *Router) {
		r.table = table
	}
}

// WithContentResolver replaces the default FileResolver.
func WithContentResolver(content ContentResolver) Option {
	return func(r *Router) {
		r.content = content
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a Router.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		headers:  http.Header{},
		table:    NewMemoryTable(),
		pipeline: NewPipeline(),
		content:  NewFileResolver(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRouterFromConfig creates a Router from configuration. Additional options
// are applied after the configuration and can override it.
func NewRouterFromConfig(cfg Config, opts ...Option) *Router {
	configOpts := []Option{
		WithWebSockets(cfg.HandleWebSockets),
		WithHeaders(cfg.ResponseHeaders()),
	}
	if cfg.RootDirectory != "" {
		configOpts = append(configOpts, WithRootDirectory(cfg.RootDirectory))
	}
	if len(cfg.AllowedOrigins) != 0 {
		configOpts = append(configOpts, WithOrigins(cfg.AllowedOrigins...))
	}
	return NewRouter(append(configOpts, opts...)...)
}

// RootDirectory returns the router level root directory.
func (r *Router) RootDirectory() string {
	return r.rootDirectory
}

// AddMiddleware registers fn to run at event. Functions registered for the
// same event run in registration order.
//
//	router.AddMiddleware(slimrouter.EventRequestHandler, func(ctx context.Context, route *slimrouter.Route) error {
//	    log.Printf("serving %s", route.URI)
//	    return nil
//	})
func (r *Router) AddMiddleware(event Event, fn MiddlewareFunc) {
	r.pipeline.Add(event, fn)
}

// AddRoute registers a route.
//
// Static mounts and file routes need a root directory, either on the route or
// on the router; without one ErrMissingRootDirectory is returned. File routes
// get their NormalizedURL joined from the root directory and the resolver path
// (or InputFile), and their ContentType inferred from it when not set.
//
// The EventAddRoute middleware runs on the prepared route before it is stored,
// so concurrent requests never see a route its middleware is still changing.
// A middleware error is returned and the route is not stored.
//
// Routes that are malformed in a way only visible at registration, such as a
// WebSocket route without handlers or a file route without a content type,
// are logged and dropped. The middleware still runs for them and AddRoute
// returns nil.
func (r *Router) AddRoute(ctx context.Context, route *Route) error {
	if route == nil {
		return ErrNilRoute
	}
	store, err := r.prepareRoute(route)
	if err != nil {
		return err
	}
	if err := r.pipeline.Run(ctx, EventAddRoute, route); err != nil {
		return err
	}
	if store != nil {
		store(route)
		r.logger.Debug("added route", "uri", route.URI, "protocol", string(route.Protocol))
	}
	return nil
}

// prepareRoute validates and fills route, and returns the table setter that
// stores it. A nil setter means the route is dropped.
func (r *Router) prepareRoute(route *Route) (func(*Route), error) {
	route.Protocol = route.Protocol.canonical()
	if route.URI != "" {
		route.URI = NormalizeURI(route.URI)
	}
	if route.Headers == nil {
		route.Headers = http.Header{}
	}

	if route.Protocol == ProtocolWebSocket {
		return r.prepareWebSocketRoute(route), nil
	}

	kind := route.Resolver.Kind()
	if kind == ResolverNone {
		return nil, ErrMissingResolver
	}
	if kind == ResolverStaticMount || kind == ResolverFilePath {
		if route.RootDirectory == "" {
			route.RootDirectory = r.rootDirectory
		}
		if route.RootDirectory == "" {
			return nil, ErrMissingRootDirectory
		}
	}

	switch kind {
	case ResolverStaticMount:
		if route.URI == "" {
			r.logger.Warn("static mount has no uri, route not added", "root", route.RootDirectory)
			return nil, nil
		}
		return r.table.SetMount, nil

	case ResolverCallable:
		if route.URI == "" {
			r.logger.Warn("callable route has no uri, route not added")
			return nil, nil
		}
		return r.table.SetRoute, nil

	case ResolverFilePath:
		route.Resolver = route.Resolver.trimLeadingSeparator()
		if route.InputFile != "" {
			route.NormalizedURL = filepath.Join(route.RootDirectory, filepath.FromSlash(route.InputFile))
		} else {
			route.NormalizedURL = filepath.Join(route.RootDirectory, filepath.FromSlash(route.Resolver.Path()))
		}
		if !withinRoot(route.RootDirectory, route.NormalizedURL) {
			r.logger.Warn("route resolves outside of its root directory, route not added",
				"uri", route.URI, "root", route.RootDirectory, "path", route.NormalizedURL)
			return nil, nil
		}
		if route.ContentType == "" {
			route.ContentType = r.content.ContentType(route.NormalizedURL)
		}
		if route.ContentType == "" || route.URI == "" {
			r.logger.Warn("unable to find content type, route not added", "uri", route.URI, "path", route.NormalizedURL)
			return nil, nil
		}
		return r.table.SetRoute, nil
	}

	return nil, nil
}

func (r *Router) prepareWebSocketRoute(route *Route) func(*Route) {
	if route.URI == "" || route.OnOpen == nil || route.OnMessage == nil {
		r.logger.Error("websocket route requires a uri, an open handler and a message handler, route not added",
			"uri", route.URI, "hasOpenHandler", route.OnOpen != nil, "hasMessageHandler", route.OnMessage != nil)
		return nil
	}
	route.resetSessions()
	return r.table.SetWebSocketRoute
}

// GetRoute returns the exact-match route registered for uri. Static mounts are
// not consulted. Protocol is ProtocolHTTP or ProtocolWebSocket.
func (r *Router) GetRoute(uri string, protocol Protocol) (*Route, bool) {
	uri = NormalizeURI(uri)
	if protocol.canonical() == ProtocolWebSocket {
		return r.table.WebSocketRoute(uri)
	}
	return r.table.Route(uri)
}

// GetRoutes lists the registered routes. For ProtocolHTTP the result holds
// snapshots, so it is safe to serialize and changing it does not affect the
// router. For ProtocolWebSocket it holds the live routes. ProtocolAll fills
// both.
func (r *Router) GetRoutes(protocol Protocol) RouteSet {
	var set RouteSet
	protocol = protocol.canonical()

	if protocol == ProtocolHTTP || protocol == ProtocolAll {
		routes := r.table.Routes()
		set.HTTP = make([]RouteSnapshot, 0, len(routes))
		for _, route := range routes {
			set.HTTP = append(set.HTTP, route.Snapshot())
		}
	}
	if protocol == ProtocolWebSocket || protocol == ProtocolAll {
		set.WebSocket = r.table.WebSocketRoutes()
	}

	return set
}

// ServeHTTP implements the http.Handler interface. Upgrade requests go to
// the WebSocket handler when WebSockets are enabled; everything else is
// resolved against the http routes. A panic or error while handling one
// request is logged and answered with a 500 response if nothing was written
// yet; it never affects other requests.
func (r *Router) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	rw := newResponseWriter(res)

	defer func() {
		if maybeErr := recover(); maybeErr != nil {
			if maybeErr == http.ErrAbortHandler {
				panic(maybeErr)
			}
			r.logger.ErrorContext(req.Context(), "request handler panicked",
				"path", req.URL.Path, "panic", maybeErr, "stack", string(debug.Stack()))
			rw.failIfUnwritten()
		}
	}()

	var err error
	if r.handleWebSockets && isWebSocketUpgradeRequest(req) {
		err = r.handleWebSocketRequest(rw, req)
	} else {
		err = r.handleRequest(rw, req)
	}
	if err != nil {
		r.logger.ErrorContext(req.Context(), "request failed", "path", req.URL.Path, "error", err)
		rw.failIfUnwritten()
	}
}

func isWebSocketUpgradeRequest(req *http.Request) bool {
	if !strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, value := range req.Header.Values("Connection") {
		for _, token := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "upgrade") {
				return true
			}
		}
	}
	return false
}

func requestURL(req *http.Request) string {
	if req.URL.IsAbs() {
		return req.URL.String()
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + req.Host + req.URL.RequestURI()
}
