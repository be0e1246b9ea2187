// Package logging provides slimrouter middleware that writes a structured log
// line for every registered route and every served request.
package logging

import (
	"context"
	"log/slog"

	"github.com/greergan/slimrouter"
)

// Register adds the logging middleware to both router events.
func Register(router *slimrouter.Router, logger *slog.Logger) {
	router.AddMiddleware(slimrouter.EventAddRoute, AddRouteMiddleware(logger))
	router.AddMiddleware(slimrouter.EventRequestHandler, RequestMiddleware(logger))
}

// AddRouteMiddleware logs each route passed to AddRoute at debug level.
func AddRouteMiddleware(logger *slog.Logger) slimrouter.MiddlewareFunc {
	return func(ctx context.Context, route *slimrouter.Route) error {
		logger.DebugContext(ctx, "route registered",
			slog.String("uri", route.URI),
			slog.String("protocol", string(route.Protocol)),
			slog.String("resolver", route.Resolver.String()),
			slog.String("contentType", route.ContentType),
			slog.String("discovery", route.Discovery.String()),
		)
		return nil
	}
}

// RequestMiddleware logs each resolved request at info level.
func RequestMiddleware(logger *slog.Logger) slimrouter.MiddlewareFunc {
	return func(ctx context.Context, route *slimrouter.Route) error {
		attrs := []any{
			slog.String("uri", route.URI),
			slog.Uint64("hits", route.Hits()),
			slog.String("contentType", route.ContentType),
		}
		if req, ok := slimrouter.RequestFromContext(ctx); ok {
			attrs = append(attrs,
				slog.String("method", req.Method),
				slog.String("remoteAddr", req.RemoteAddr),
			)
		}
		logger.InfoContext(ctx, "request", attrs...)
		return nil
	}
}
