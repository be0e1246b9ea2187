package slimrouter

import "sync"

// RouteTable stores a router's routes. It holds three independent mappings,
// each keyed by normalized URI and each preserving insertion order:
// exact-match http routes, static mounts and WebSocket routes. Setting a URI
// that is already present replaces the stored route in place.
//
// Implementations must be safe for concurrent use.
type RouteTable interface {
	Route(uri string) (*Route, bool)
	SetRoute(route *Route)
	Routes() []*Route

	Mount(uri string) (*Route, bool)
	SetMount(route *Route)
	Mounts() []*Route

	WebSocketRoute(uri string) (*Route, bool)
	SetWebSocketRoute(route *Route)
	WebSocketRoutes() []*Route
}

// MemoryTable is the default RouteTable. It keeps everything in memory behind
// a single read/write lock.
type MemoryTable struct {
	mu        sync.RWMutex
	routes    orderedRoutes
	mounts    orderedRoutes
	webSocket orderedRoutes
}

var _ RouteTable = &MemoryTable{}

// NewMemoryTable creates an empty MemoryTable.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{}
}

func (t *MemoryTable) Route(uri string) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.routes.get(uri)
}

func (t *MemoryTable) SetRoute(route *Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes.set(route)
}

func (t *MemoryTable) Routes() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.routes.list()
}

func (t *MemoryTable) Mount(uri string) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mounts.get(uri)
}

func (t *MemoryTable) SetMount(route *Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mounts.set(route)
}

func (t *MemoryTable) Mounts() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mounts.list()
}

func (t *MemoryTable) WebSocketRoute(uri string) (*Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.webSocket.get(uri)
}

func (t *MemoryTable) SetWebSocketRoute(route *Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.webSocket.set(route)
}

func (t *MemoryTable) WebSocketRoutes() []*Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.webSocket.list()
}

type orderedRoutes struct {
	index  map[string]int
	routes []*Route
}

func (o *orderedRoutes) get(uri string) (*Route, bool) {
	i, ok := o.index[uri]
	if !ok {
		return nil, false
	}
	return o.routes[i], true
}

func (o *orderedRoutes) set(route *Route) {
	if o.index == nil {
		o.index = map[string]int{}
	}
	if i, ok := o.index[route.URI]; ok {
		o.routes[i] = route
		return
	}
	o.index[route.URI] = len(o.routes)
	o.routes = append(o.routes, route)
}

func (o *orderedRoutes) list() []*Route {
	routes := make([]*Route, len(o.routes))
	copy(routes, o.routes)
	return routes
}
