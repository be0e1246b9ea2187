// Package metrics provides slimrouter middleware that records Prometheus
// metrics for route registration and request handling.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/greergan/slimrouter"
)

// Config configures the metrics middleware.
type Config struct {
	// Namespace is the metrics namespace (default: "slimrouter").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics middleware.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the collectors. Create one per registry with New.
type Metrics struct {
	routesAdded *prometheus.CounterVec
	requests    *prometheus.CounterVec
	routeHits   *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "slimrouter",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		routesAdded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "routes_added_total",
			Help:        "Total number of AddRoute calls by protocol and discovery",
			ConstLabels: config.ConstLabels,
		}, []string{"protocol", "discovery"}),

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "route_requests_total",
			Help:        "Total number of requests resolved to a route by discovery and content type",
			ConstLabels: config.ConstLabels,
		}, []string{"discovery", "content_type"}),

		routeHits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "route_hits",
			Help:        "Hit counter of each explicitly registered route",
			ConstLabels: config.ConstLabels,
		}, []string{"uri"}),
	}
}

// Register adds the metrics middleware to both router events.
func (m *Metrics) Register(router *slimrouter.Router) {
	router.AddMiddleware(slimrouter.EventAddRoute, m.AddRouteMiddleware())
	router.AddMiddleware(slimrouter.EventRequestHandler, m.RequestMiddleware())
}

// AddRouteMiddleware counts AddRoute calls.
func (m *Metrics) AddRouteMiddleware() slimrouter.MiddlewareFunc {
	return func(ctx context.Context, route *slimrouter.Route) error {
		m.routesAdded.WithLabelValues(string(route.Protocol), route.Discovery.String()).Inc()
		return nil
	}
}

// RequestMiddleware counts requests and mirrors the hit counter of registered
// routes. Routes discovered under a static mount are created from request
// paths, so they are never used as a label.
func (m *Metrics) RequestMiddleware() slimrouter.MiddlewareFunc {
	return func(ctx context.Context, route *slimrouter.Route) error {
		m.requests.WithLabelValues(route.Discovery.String(), route.ContentType).Inc()
		if route.Discovery == slimrouter.Registered {
			m.routeHits.WithLabelValues(route.URI).Set(float64(route.Hits()))
		}
		return nil
	}
}
