package slimrouter

import (
	"strings"

	"github.com/RobertWHurst/navaros"
)

// Middleware returns a Navaros middleware function that serves the requests
// this router has a route for and passes everything else to the next handler
// in the Navaros chain. Static mounts are consulted, so a request under a
// mount is served (or answered with 404 when its file does not exist).
func (r *Router) Middleware() navaros.HandlerFunc {
	return func(ctx *navaros.Context) {
		req := ctx.Request()
		path := NormalizeURI(req.URL.Path)

		if r.handleWebSockets && isWebSocketUpgradeRequest(req) {
			if _, ok := r.table.WebSocketRoute(path); ok {
				navaros.CtxInhibitResponse(ctx)
				r.ServeHTTP(ctx.ResponseWriter(), req)
				return
			}
			ctx.Next()
			return
		}

		if !r.hasRouteFor(path) {
			ctx.Next()
			return
		}
		navaros.CtxInhibitResponse(ctx)
		r.ServeHTTP(ctx.ResponseWriter(), req)
	}
}

func (r *Router) hasRouteFor(path string) bool {
	if _, ok := r.table.Route(path); ok {
		return true
	}
	for _, mount := range r.table.Mounts() {
		if strings.HasPrefix(path, mount.URI) {
			return true
		}
	}
	return false
}
