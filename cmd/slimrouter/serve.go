package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/greergan/slimrouter"
	"github.com/greergan/slimrouter/middleware/logging"
	"github.com/greergan/slimrouter/middleware/metrics"
	"github.com/greergan/slimrouter/middleware/tracing"
)

type serveOptions struct {
	envFiles    []string
	host        string
	port        int
	root        string
	websockets  bool
	mounts      []string
	routesPath  string
	metricsPath string
}

func serveCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the router",
		Long: `Start the router and serve until interrupted.

Mounts are given as PREFIX or PREFIX=DIRECTORY. Without any mount, the root
directory is mounted at /.`,
		Example: `  slimrouter serve --root ./public
  slimrouter serve --root ./public --mount /assets --mount /docs=./docs
  slimrouter serve --root ./public --routes-path /_routes
  SLIM_PORT=9000 slimrouter serve --websockets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load (default .env)")
	cmd.Flags().StringVar(&opts.host, "host", "", "host to listen on")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on")
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "root directory")
	cmd.Flags().BoolVar(&opts.websockets, "websockets", false, "handle WebSocket upgrades")
	cmd.Flags().StringArrayVarP(&opts.mounts, "mount", "m", nil, "static mount, PREFIX or PREFIX=DIRECTORY")
	cmd.Flags().StringVar(&opts.routesPath, "routes-path", "", "serve the route table as JSON at this path (exposes filesystem paths)")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics-path", "/metrics", "path of the Prometheus endpoint, empty to disable")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := slimrouter.LoadConfig(opts.envFiles...)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("root") {
		cfg.RootDirectory = opts.root
	}
	if flags.Changed("websockets") {
		cfg.HandleWebSockets = opts.websockets
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := slimrouter.NewRouterFromConfig(cfg, slimrouter.WithLogger(logger))
	logging.Register(router, logger)

	registry := prometheus.NewRegistry()
	metrics.New(metrics.WithRegistry(registry)).Register(router)
	router.AddMiddleware(slimrouter.EventRequestHandler, tracing.Middleware())

	if err := addMounts(ctx, router, cfg, opts.mounts); err != nil {
		return err
	}
	if opts.routesPath != "" {
		if err := addRouteListing(ctx, router, opts.routesPath); err != nil {
			return err
		}
	}

	mux := chi.NewRouter()
	if opts.metricsPath != "" {
		mux.Handle(opts.metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	mux.Handle("/*", tracing.Handler(router))

	server := slimrouter.NewServer(cfg, mux, slimrouter.WithServerLogger(logger))
	return server.Start(ctx)
}

func addMounts(ctx context.Context, router *slimrouter.Router, cfg slimrouter.Config, mounts []string) error {
	if len(mounts) == 0 {
		if cfg.RootDirectory == "" {
			return fmt.Errorf("no root directory configured; set --root or SLIM_ROOT_DIRECTORY")
		}
		mounts = []string{"/"}
	}

	for _, mount := range mounts {
		prefix, directory, _ := strings.Cut(mount, "=")
		route := slimrouter.NewRoute(prefix, slimrouter.StaticMount())
		route.RootDirectory = directory
		if err := router.AddRoute(ctx, route); err != nil {
			return fmt.Errorf("adding mount %q: %w", mount, err)
		}
	}
	return nil
}

func addRouteListing(ctx context.Context, router *slimrouter.Router, path string) error {
	route := slimrouter.NewRoute(path, slimrouter.Callable(func(ctx context.Context) (any, error) {
		return router.GetRoutes(slimrouter.ProtocolAll), nil
	}))
	route.ContentType = "application/json"
	route.Headers.Set("Cache-Control", "no-store")
	return router.AddRoute(ctx, route)
}
