package setheader

import (
	"context"
	"net/http"

	"github.com/greergan/slimrouter"
)

// Middleware creates addRoute middleware that sets a response header on every
// registered route, including routes discovered under static mounts.
//
// Example:
//
//	router.AddMiddleware(slimrouter.EventAddRoute, setheader.Middleware("Cache-Control", "no-store"))
//
// See also: MiddlewareFor to restrict the header to some routes.
func Middleware(key, value string) slimrouter.MiddlewareFunc {
	return MiddlewareFor(nil, key, value)
}

// MiddlewareFor is like Middleware but only sets the header on routes for
// which match returns true. A nil match matches every route.
//
// Example:
//
//	router.AddMiddleware(slimrouter.EventAddRoute, setheader.MiddlewareFor(
//	    func(route *slimrouter.Route) bool { return strings.HasPrefix(route.ContentType, "image/") },
//	    "Cache-Control", "max-age=86400",
//	))
func MiddlewareFor(match func(route *slimrouter.Route) bool, key, value string) slimrouter.MiddlewareFunc {
	return func(ctx context.Context, route *slimrouter.Route) error {
		if match != nil && !match(route) {
			return nil
		}
		if route.Headers == nil {
			route.Headers = http.Header{}
		}
		route.Headers.Set(key, value)
		return nil
	}
}
