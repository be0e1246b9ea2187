package slimrouter

import "errors"

var (
	// ErrNilRoute is returned by AddRoute when it is given a nil route.
	ErrNilRoute = errors.New("slimrouter: route is nil")

	// ErrMissingRootDirectory is returned by AddRoute for file backed http
	// routes when neither the route nor the router has a root directory.
	ErrMissingRootDirectory = errors.New("slimrouter: addRoute requires one of route.RootDirectory or a router level root directory")

	// ErrMissingResolver is returned by AddRoute for http routes that have no
	// resolver.
	ErrMissingResolver = errors.New("slimrouter: http route has no resolver")

	// ErrRouteNotFound is returned by HandleConnection when no WebSocket route
	// is registered for the requested path.
	ErrRouteNotFound = errors.New("slimrouter: route not found")

	// ErrSessionClosed is returned when sending on a closed session.
	ErrSessionClosed = errors.New("slimrouter: session is closed")

	errUnsupportedContentType = errors.New("slimrouter: unsupported content type")
	errUnresolvableRoute      = errors.New("slimrouter: route cannot be resolved")
)
