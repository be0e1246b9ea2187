// Package tracing provides OpenTelemetry integration for slimrouter. Handler
// starts a span for every request and Middleware annotates it with the route
// the request resolved to.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/greergan/slimrouter"
)

// Default tracer name for slimrouter spans.
const defaultTracerName = "slimrouter"

// Attribute keys set by Middleware.
const (
	AttrRouteURI         = attribute.Key("slimrouter.route.uri")
	AttrRouteResolver    = attribute.Key("slimrouter.route.resolver")
	AttrRouteContentType = attribute.Key("slimrouter.route.content_type")
	AttrRouteDiscovery   = attribute.Key("slimrouter.route.discovery")
	AttrRouteHits        = attribute.Key("slimrouter.route.hits")
)

// Middleware returns requestHandler middleware that records the matched route
// on the span found in the request context. Without a recording span it does
// nothing.
func Middleware() slimrouter.MiddlewareFunc {
	return func(ctx context.Context, route *slimrouter.Route) error {
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return nil
		}
		span.SetAttributes(
			AttrRouteURI.String(route.URI),
			AttrRouteResolver.String(route.Resolver.Kind().String()),
			AttrRouteContentType.String(route.ContentType),
			AttrRouteDiscovery.String(route.Discovery.String()),
			AttrRouteHits.Int64(int64(route.Hits())),
		)
		span.AddEvent("route matched")
		return nil
	}
}

// Handler wraps next so every request runs inside a server span started from
// the global tracer provider.
func Handler(next http.Handler) http.Handler {
	return HandlerWithTracer(next, otel.Tracer(defaultTracerName))
}

// HandlerWithTracer is like Handler with an explicit tracer.
func HandlerWithTracer(next http.Handler, tracer trace.Tracer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", sw.status))
		if sw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.status))
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the hijacker needed for
// WebSocket upgrades.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
