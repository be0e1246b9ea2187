package slimrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"reflect"
	"strings"
)

func (r *Router) handleRequest(w http.ResponseWriter, req *http.Request) error {
	ctx := withRequest(req.Context(), req)

	route, err := r.resolveRoute(ctx, req)
	if err != nil {
		return err
	}
	if route == nil {
		r.notFound(w, req)
		return nil
	}
	return r.serveRoute(ctx, w, req, route)
}

// resolveRoute finds the exact-match route for the request, discovering one
// under a static mount if needed. It returns nil when nothing matches.
func (r *Router) resolveRoute(ctx context.Context, req *http.Request) (*Route, error) {
	path := NormalizeURI(req.URL.Path)

	if route, ok := r.table.Route(path); ok {
		return route, nil
	}
	return r.discoverRoute(ctx, path, requestURL(req))
}

// discoverRoute registers a file route for path under every static mount
// whose prefix it starts with. When several mounts match, each registration
// replaces the previous one, so the last matching mount in insertion order
// wins.
func (r *Router) discoverRoute(ctx context.Context, path, url string) (*Route, error) {
	for _, mount := range r.table.Mounts() {
		if !strings.HasPrefix(path, mount.URI) {
			continue
		}

		resolverPath := "index.html"
		if path != mount.URI {
			resolverPath = path[len(mount.URI):]
		}

		r.logger.DebugContext(ctx, "discovering static route", "uri", path, "mount", mount.URI, "resolver", resolverPath)

		discovered := NewRoute(path, FilePath(resolverPath))
		discovered.RootDirectory = mount.RootDirectory
		discovered.Discovery = Discovered
		discovered.url = url
		if err := r.AddRoute(ctx, discovered); err != nil {
			return nil, fmt.Errorf("discovering %s under %s: %w", path, mount.URI, err)
		}
	}

	route, ok := r.table.Route(path)
	if !ok {
		return nil, nil
	}
	return route, nil
}

func (r *Router) serveRoute(ctx context.Context, w http.ResponseWriter, req *http.Request, route *Route) error {
	route.recordHit(requestURL(req))

	if err := r.pipeline.Run(ctx, EventRequestHandler, route); err != nil {
		return err
	}

	content, err := r.resolveContent(ctx, route)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.DebugContext(ctx, "route content does not exist", "uri", route.URI, "path", route.NormalizedURL)
		r.notFound(w, req)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolving %s: %w", route.URI, err)
	}

	return r.respond(w, route, content)
}

func (r *Router) resolveContent(ctx context.Context, route *Route) (any, error) {
	switch route.Resolver.Kind() {
	case ResolverFilePath:
		if route.NormalizedURL == "" || route.ContentType == "" {
			return nil, errUnresolvableRoute
		}
		switch {
		case r.content.IsJSON(route.ContentType):
			return r.content.ReadJSON(ctx, route.NormalizedURL)
		case r.content.IsText(route.ContentType):
			return r.content.ReadText(ctx, route.NormalizedURL)
		case r.content.IsBinary(route.ContentType):
			return r.content.ReadBinary(ctx, route.NormalizedURL)
		default:
			return nil, fmt.Errorf("%w: %s", errUnsupportedContentType, route.ContentType)
		}

	case ResolverCallable:
		if route.ContentType == "" {
			return nil, errUnresolvableRoute
		}
		return route.Resolver.Func()(ctx)

	default:
		return nil, errUnresolvableRoute
	}
}

// respond writes content with a 200 status, or a 404 when the content is
// absent.
func (r *Router) respond(w http.ResponseWriter, route *Route, content any) error {
	status := StatusOK
	if isAbsent(content) {
		status = StatusNotFound
		content = nil
	}

	body, err := encodeContent(content)
	if err != nil {
		return fmt.Errorf("encoding content for %s: %w", route.URI, err)
	}

	header := w.Header()
	copyHeaders(header, r.headers)
	copyHeaders(header, route.Headers)
	header.Set("Content-Type", route.ContentType)

	w.WriteHeader(status)
	if len(body) != 0 {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("writing response for %s: %w", route.URI, err)
		}
	}
	return nil
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	copyHeaders(w.Header(), r.headers)
	w.WriteHeader(StatusNotFound)
	r.logger.DebugContext(req.Context(), "responded with not found", "path", req.URL.Path)
}

// isAbsent reports whether content is nil, including nil pointers, slices and
// maps stored in the interface.
func isAbsent(content any) bool {
	if content == nil {
		return true
	}
	v := reflect.ValueOf(content)
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func encodeContent(content any) ([]byte, error) {
	switch v := content.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		if closer, ok := v.(io.Closer); ok {
			defer closer.Close()
		}
		return io.ReadAll(v)
	default:
		return json.Marshal(v)
	}
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		dst.Del(key)
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
