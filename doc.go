// Package slimrouter provides an http router with lazily discovered static
// routes, callable routes and WebSocket routes.
//
// Slimrouter keeps a table of routes keyed by normalized URI, resolves every
// request against it and either produces the route's content or upgrades the
// connection to a WebSocket session.
//
// # Key Features
//
//   - Exact-match file and callable routes
//   - Static mounts that discover file routes on first request
//   - Content type inference and JSON, text or binary loading
//   - WebSocket routes with per-route session tracking
//   - Ordered middleware for route registration and request handling
//   - Works with any HTTP server via the http.Handler interface
//
// # Quick Start
//
//	router := slimrouter.NewRouter(
//	    slimrouter.WithRootDirectory("/www"),
//	    slimrouter.WithWebSockets(true),
//	)
//
//	ctx := context.Background()
//	router.AddRoute(ctx, slimrouter.NewRoute("/", slimrouter.FilePath("index.html")))
//	router.AddRoute(ctx, slimrouter.NewRoute("/assets", slimrouter.StaticMount()))
//
//	http.ListenAndServe(":8080", router)
//
// # Routes
//
// A route's Resolver decides how it produces content:
//
//	slimrouter.FilePath("docs/intro.html") // read from the root directory
//	slimrouter.StaticMount()               // discover file routes below the URI
//	slimrouter.Callable(func(ctx context.Context) (any, error) {
//	    return map[string]int{"users": 5}, nil
//	})
//
// The first request to /assets/app.css under the static mount above registers
// a new file route for /assets/app.css; later requests hit it directly. A
// request to the mount itself resolves to its index.html.
//
// Callable routes need an explicit ContentType. Content is written as is for
// strings, byte slices and readers, and as JSON for anything else. Nil content
// results in a 404.
//
// # WebSocket Routes
//
//	router.AddRoute(ctx, slimrouter.NewWebSocketRoute("/chat",
//	    func(ctx context.Context, s *slimrouter.Session) error {
//	        return s.Send(ctx, "welcome")
//	    },
//	    func(ctx context.Context, s *slimrouter.Session, msg *slimrouter.Message) error {
//	        return s.Send(ctx, msg.Text())
//	    },
//	))
//
// # Middleware
//
// Middleware runs at two events, in registration order:
//
//	router.AddMiddleware(slimrouter.EventAddRoute, func(ctx context.Context, route *slimrouter.Route) error {
//	    log.Printf("registered %s", route.URI)
//	    return nil
//	})
//
// An error from EventRequestHandler middleware stops the pipeline and fails
// the request with a 500.
package slimrouter
