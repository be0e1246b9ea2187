package slimrouter_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/greergan/slimrouter"
)

func serve(t *testing.T, handler http.Handler, method, target string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec.Result()
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func mustAddRoute(t *testing.T, router *slimrouter.Router, route *slimrouter.Route) {
	t.Helper()
	if err := router.AddRoute(context.Background(), route); err != nil {
		t.Fatal(err)
	}
}

func TestServeFileRoute(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/", slimrouter.FilePath("index.html")))

	server := httptest.NewServer(router)
	defer server.Close()

	res, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/html" {
		t.Errorf("expected text/html, got %q", ct)
	}
	if body := readBody(t, res); body != "<h1>home</h1>" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestServeUnknownPath(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/", slimrouter.FilePath("index.html")))

	res := serve(t, router, http.MethodGet, "/missing")
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
}

func TestServeJSONFile(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/data", slimrouter.FilePath("data.json")))

	res := serve(t, router, http.MethodGet, "/data")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	if body := readBody(t, res); body != `{"users":5}` {
		t.Errorf("unexpected body %q", body)
	}
}

func TestServeCallableRoute(t *testing.T) {
	router := slimrouter.NewRouter()

	var users atomic.Int64
	route := slimrouter.NewRoute("/users", slimrouter.Callable(func(ctx context.Context) (any, error) {
		if _, ok := slimrouter.RequestFromContext(ctx); !ok {
			return nil, errors.New("request missing from context")
		}
		return users.Load(), nil
	}))
	route.ContentType = "text/json"
	mustAddRoute(t, router, route)

	users.Store(5)

	res := serve(t, router, http.MethodGet, "/users")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/json" {
		t.Errorf("expected text/json, got %q", ct)
	}
	if body := readBody(t, res); body != "5" {
		t.Errorf("expected content evaluated at request time, got %q", body)
	}
	if route.Hits() != 1 {
		t.Errorf("expected 1 hit, got %d", route.Hits())
	}
}

func TestServeCallableRouteFailures(t *testing.T) {
	router := slimrouter.NewRouter()

	noType := slimrouter.NewRoute("/untyped", slimrouter.Callable(func(ctx context.Context) (any, error) {
		return "x", nil
	}))
	mustAddRoute(t, router, noType)

	failing := slimrouter.NewRoute("/failing", slimrouter.Callable(func(ctx context.Context) (any, error) {
		return nil, errors.New("boom")
	}))
	failing.ContentType = "text/plain"
	mustAddRoute(t, router, failing)

	empty := slimrouter.NewRoute("/empty", slimrouter.Callable(func(ctx context.Context) (any, error) {
		return nil, nil
	}))
	empty.ContentType = "text/plain"
	mustAddRoute(t, router, empty)

	cases := map[string]int{
		"/untyped": http.StatusInternalServerError,
		"/failing": http.StatusInternalServerError,
		"/empty":   http.StatusNotFound,
	}
	for path, want := range cases {
		if res := serve(t, router, http.MethodGet, path); res.StatusCode != want {
			t.Errorf("%s: expected %d, got %d", path, want, res.StatusCode)
		}
	}
}

func TestServeUnsupportedContentType(t *testing.T) {
	router, _ := newTestRouter(t)
	route := slimrouter.NewRoute("/blob", slimrouter.FilePath("blob.custom"))
	route.ContentType = "application/x-custom"
	mustAddRoute(t, router, route)

	if res := serve(t, router, http.MethodGet, "/blob"); res.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", res.StatusCode)
	}
}

func TestServeMissingFile(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/gone", slimrouter.FilePath("gone.html")))

	if res := serve(t, router, http.MethodGet, "/gone"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
}

func TestStaticMountDiscovery(t *testing.T) {
	router, root := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/assets", slimrouter.StaticMount()))

	var added atomic.Int32
	router.AddMiddleware(slimrouter.EventAddRoute, func(ctx context.Context, route *slimrouter.Route) error {
		added.Add(1)
		return nil
	})

	for i := 0; i < 2; i++ {
		res := serve(t, router, http.MethodGet, "/assets/x.png")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, res.StatusCode)
		}
		if ct := res.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected image/png, got %q", ct)
		}
		if body := readBody(t, res); body != "\x89PNG" {
			t.Errorf("unexpected body %q", body)
		}
	}

	route, ok := router.GetRoute("/assets/x.png", slimrouter.ProtocolHTTP)
	if !ok {
		t.Fatal("expected discovered route to be registered")
	}
	if route.Resolver.Path() != "x.png" {
		t.Errorf("expected resolver x.png, got %q", route.Resolver.Path())
	}
	if route.Discovery != slimrouter.Discovered {
		t.Errorf("expected discovered route, got %s", route.Discovery)
	}
	if route.RootDirectory != root {
		t.Errorf("expected mount root directory, got %q", route.RootDirectory)
	}
	if want := filepath.Join(root, "x.png"); route.NormalizedURL != want {
		t.Errorf("expected normalized url %q, got %q", want, route.NormalizedURL)
	}
	if route.Hits() != 2 {
		t.Errorf("expected 2 hits, got %d", route.Hits())
	}
	if route.URL() != "http://example.com/assets/x.png" {
		t.Errorf("expected the first request url, got %q", route.URL())
	}
	if n := added.Load(); n != 1 {
		t.Errorf("expected discovery to register the route once, got %d", n)
	}
}

func TestStaticMountIndex(t *testing.T) {
	root := newTestSite(t)
	router := slimrouter.NewRouter()

	mount := slimrouter.NewRoute("/assets", slimrouter.StaticMount())
	mount.RootDirectory = filepath.Join(root, "assets")
	mustAddRoute(t, router, mount)

	res := serve(t, router, http.MethodGet, "/assets")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if body := readBody(t, res); body != "<h1>assets</h1>" {
		t.Errorf("expected the mount index, got %q", body)
	}

	res = serve(t, router, http.MethodGet, "/assets/app.css")
	if res.StatusCode != http.StatusOK || res.Header.Get("Content-Type") != "text/css" {
		t.Errorf("expected css file, got %d %q", res.StatusCode, res.Header.Get("Content-Type"))
	}
}

func TestStaticMountMissingFile(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/", slimrouter.StaticMount()))

	if res := serve(t, router, http.MethodGet, "/nope.html"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
	if res := serve(t, router, http.MethodGet, "/README"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for a file without content type, got %d", res.StatusCode)
	}
	if res := serve(t, router, http.MethodGet, "/about.html"); res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
}

func TestStaticMountConcurrentDiscovery(t *testing.T) {
	router, root := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/assets", slimrouter.StaticMount()))

	server := httptest.NewServer(router)
	defer server.Close()

	var wg sync.WaitGroup
	statuses := make([]int, 16)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := http.Get(server.URL + "/assets/app.css")
			if err != nil {
				return
			}
			res.Body.Close()
			statuses[i] = res.StatusCode
		}(i)
	}
	wg.Wait()

	for i, status := range statuses {
		if status != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, status)
		}
	}

	route, ok := router.GetRoute("/assets/app.css", slimrouter.ProtocolHTTP)
	if !ok {
		t.Fatal("expected discovered route")
	}
	if route.NormalizedURL != filepath.Join(root, "app.css") || route.ContentType != "text/css" {
		t.Errorf("expected a well formed route, got %+v", route.Snapshot())
	}
	if n := len(router.GetRoutes(slimrouter.ProtocolHTTP).HTTP); n != 1 {
		t.Errorf("expected one discovered route, got %d", n)
	}
}

func TestRequestMiddleware(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/", slimrouter.FilePath("index.html")))

	var methods []string
	router.AddMiddleware(slimrouter.EventRequestHandler, func(ctx context.Context, route *slimrouter.Route) error {
		req, ok := slimrouter.RequestFromContext(ctx)
		if !ok {
			return errors.New("request missing from context")
		}
		methods = append(methods, req.Method)
		return nil
	})

	if res := serve(t, router, http.MethodGet, "/"); res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if len(methods) != 1 || methods[0] != http.MethodGet {
		t.Errorf("unexpected middleware calls %v", methods)
	}

	if res := serve(t, router, http.MethodGet, "/missing"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
	if len(methods) != 1 {
		t.Error("expected middleware not to run for unmatched requests")
	}
}

func TestRequestMiddlewareError(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/", slimrouter.FilePath("index.html")))

	router.AddMiddleware(slimrouter.EventRequestHandler, func(ctx context.Context, route *slimrouter.Route) error {
		return errors.New("denied")
	})

	if res := serve(t, router, http.MethodGet, "/"); res.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", res.StatusCode)
	}
}

func TestRequestPanicRecovery(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/", slimrouter.FilePath("index.html")))

	route := slimrouter.NewRoute("/panic", slimrouter.Callable(func(ctx context.Context) (any, error) {
		panic("resolver exploded")
	}))
	route.ContentType = "text/plain"
	mustAddRoute(t, router, route)

	server := httptest.NewServer(router)
	defer server.Close()

	res, err := http.Get(server.URL + "/panic")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", res.StatusCode)
	}

	res, err = http.Get(server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected the server to keep serving, got %d", res.StatusCode)
	}
}

func TestResponseHeaders(t *testing.T) {
	router, _ := newTestRouter(t, slimrouter.WithHeaders(http.Header{
		"X-Router":      {"router"},
		"Cache-Control": {"no-cache"},
	}))

	route := slimrouter.NewRoute("/", slimrouter.FilePath("index.html"))
	route.Headers.Set("Cache-Control", "max-age=60")
	route.Headers.Set("Content-Type", "text/plain")
	mustAddRoute(t, router, route)

	res := serve(t, router, http.MethodGet, "/")
	if res.Header.Get("X-Router") != "router" {
		t.Errorf("expected router header, got %v", res.Header)
	}
	if res.Header.Get("Cache-Control") != "max-age=60" {
		t.Errorf("expected route header to override router header, got %q", res.Header.Get("Cache-Control"))
	}
	if res.Header.Get("Content-Type") != "text/html" {
		t.Errorf("expected content type to be set last, got %q", res.Header.Get("Content-Type"))
	}

	res = serve(t, router, http.MethodGet, "/missing")
	if res.Header.Get("X-Router") != "router" {
		t.Error("expected router headers on not found responses")
	}
}

func TestServeDotSegmentsStayInsideMount(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/assets", slimrouter.StaticMount()))

	req := httptest.NewRequest(http.MethodGet, "/assets/x.png", nil)
	req.URL.Path = "/assets/../about.html"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpgradeRequestWithWebSocketsDisabled(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/ws", slimrouter.FilePath("index.html")))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>home</h1>" {
		t.Errorf("expected the upgrade request to be served as http, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestDiscoveredRouteHiddenUntilMiddlewareFinishes(t *testing.T) {
	router, _ := newTestRouter(t)
	mustAddRoute(t, router, slimrouter.NewRoute("/assets", slimrouter.StaticMount()))

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	router.AddMiddleware(slimrouter.EventAddRoute, func(ctx context.Context, route *slimrouter.Route) error {
		if route.URI != "/assets/app.css" {
			return nil
		}
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		route.Headers.Set("Cache-Control", "no-store")
		return nil
	})

	first := make(chan *http.Response, 1)
	go func() {
		first <- serve(t, router, http.MethodGet, "/assets/app.css")
	}()
	<-entered

	if _, ok := router.GetRoute("/assets/app.css", slimrouter.ProtocolHTTP); ok {
		t.Error("expected the route to stay hidden while its middleware runs")
	}

	res := serve(t, router, http.MethodGet, "/assets/app.css")
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
	if got := res.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected a fully prepared route, got Cache-Control=%q", got)
	}

	close(release)
	res = <-first
	if res.StatusCode != http.StatusOK || res.Header.Get("Cache-Control") != "no-store" {
		t.Errorf("unexpected first response %d %q", res.StatusCode, res.Header.Get("Cache-Control"))
	}
}

func TestOverlappingMountsLastMatchWins(t *testing.T) {
	outer := newTestSite(t)
	inner := t.TempDir()
	writeFile(t, inner, "x.png", "inner")

	cases := []struct {
		name     string
		mounts   []*slimrouter.Route
		wantRoot string
		wantBody string
	}{
		{
			name:     "inner mount added last",
			mounts:   []*slimrouter.Route{mountAt("/", outer), mountAt("/assets", inner)},
			wantRoot: inner,
			wantBody: "inner",
		},
		{
			name:     "outer mount added last",
			mounts:   []*slimrouter.Route{mountAt("/assets", inner), mountAt("/", outer)},
			wantRoot: outer,
			wantBody: "\x89PNG",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			router := slimrouter.NewRouter()
			for _, mount := range c.mounts {
				mustAddRoute(t, router, mount)
			}

			var registrations atomic.Int32
			router.AddMiddleware(slimrouter.EventAddRoute, func(ctx context.Context, route *slimrouter.Route) error {
				if route.Discovery == slimrouter.Discovered {
					registrations.Add(1)
				}
				return nil
			})

			res := serve(t, router, http.MethodGet, "/assets/x.png")
			if body := readBody(t, res); res.StatusCode != http.StatusOK || body != c.wantBody {
				t.Errorf("unexpected response %d %q", res.StatusCode, body)
			}

			route, ok := router.GetRoute("/assets/x.png", slimrouter.ProtocolHTTP)
			if !ok {
				t.Fatal("expected discovered route")
			}
			if route.RootDirectory != c.wantRoot {
				t.Errorf("expected root %q, got %q", c.wantRoot, route.RootDirectory)
			}
			if n := registrations.Load(); n != 2 {
				t.Errorf("expected one registration per matching mount, got %d", n)
			}
		})
	}
}

func mountAt(uri, root string) *slimrouter.Route {
	mount := slimrouter.NewRoute(uri, slimrouter.StaticMount())
	mount.RootDirectory = root
	return mount
}

func TestServeTypedNilContent(t *testing.T) {
	router := slimrouter.NewRouter()

	type user struct{ Name string }
	resolvers := map[string]slimrouter.ResolverFunc{
		"/nil-bytes":   func(ctx context.Context) (any, error) { return []byte(nil), nil },
		"/nil-pointer": func(ctx context.Context) (any, error) { return (*user)(nil), nil },
		"/nil-map":     func(ctx context.Context) (any, error) { return map[string]int(nil), nil },
		"/empty-bytes": func(ctx context.Context) (any, error) { return []byte{}, nil },
		"/undefined":   func(ctx context.Context) (any, error) { return "undefined", nil },
	}
	for uri, fn := range resolvers {
		route := slimrouter.NewRoute(uri, slimrouter.Callable(fn))
		route.ContentType = "application/json"
		mustAddRoute(t, router, route)
	}

	cases := map[string]int{
		"/nil-bytes":   http.StatusNotFound,
		"/nil-pointer": http.StatusNotFound,
		"/nil-map":     http.StatusNotFound,
		"/empty-bytes": http.StatusOK,
		"/undefined":   http.StatusOK,
	}
	for path, want := range cases {
		res := serve(t, router, http.MethodGet, path)
		if res.StatusCode != want {
			t.Errorf("%s: expected %d, got %d", path, want, res.StatusCode)
		}
		if want == http.StatusNotFound {
			if body := readBody(t, res); body != "" {
				t.Errorf("%s: expected an empty body, got %q", path, body)
			}
		}
	}
}
