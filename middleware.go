package slimrouter

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Event names a point in the router's lifecycle at which middleware runs.
type Event string

const (
	// EventAddRoute runs after every AddRoute call, including the ones made
	// while discovering static routes.
	EventAddRoute Event = "addRoute"
	// EventRequestHandler runs for every http request that resolved to a
	// route, before its content is produced. The request is available
	// through RequestFromContext.
	EventRequestHandler Event = "requestHandler"
)

// MiddlewareFunc is a middleware step. Returning an error stops the pipeline;
// for EventRequestHandler the request then fails with a 500 response.
type MiddlewareFunc func(ctx context.Context, route *Route) error

// Pipeline holds the middleware registered for each event. Functions run in
// the order they were added, one at a time.
type Pipeline struct {
	mu    sync.RWMutex
	funcs map[Event][]MiddlewareFunc
}

// NewPipeline creates an empty Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		funcs: map[Event][]MiddlewareFunc{},
	}
}

// Add appends fn to the middleware for event.
func (p *Pipeline) Add(event Event, fn MiddlewareFunc) {
	if fn == nil {
		panic("slimrouter: nil middleware passed to Add")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.funcs[event] = append(p.funcs[event], fn)
}

// Len returns the number of functions registered for event.
func (p *Pipeline) Len(event Event) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.funcs[event])
}

// Run calls each function registered for event in order. It stops at the
// first error and returns it.
func (p *Pipeline) Run(ctx context.Context, event Event, route *Route) error {
	p.mu.RLock()
	funcs := p.funcs[event]
	p.mu.RUnlock()

	for i, fn := range funcs {
		if err := fn(ctx, route); err != nil {
			return fmt.Errorf("%s middleware %d: %w", event, i, err)
		}
	}
	return nil
}

type requestContextKey struct{}

// RequestFromContext returns the http request being served, if any. It is set
// for EventRequestHandler middleware and for callable resolvers.
func RequestFromContext(ctx context.Context) (*http.Request, bool) {
	req, ok := ctx.Value(requestContextKey{}).(*http.Request)
	return req, ok
}

func withRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, requestContextKey{}, req)
}
