package slimrouter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// ErrServerAlreadyRunning is returned by Listen when the server is already
// listening.
var ErrServerAlreadyRunning = errors.New("slimrouter: server is already running")

// Server binds a listener and serves a handler, usually a Router, with
// http.Server. Every accepted connection is served on its own goroutine and
// the requests of one connection are handled one after another.
type Server struct {
	mu              sync.RWMutex
	addr            string
	runningMessage  string
	shutdownTimeout time.Duration
	logger          *slog.Logger
	handler         http.Handler
	server          *http.Server
	listener        net.Listener
	startedAt       time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger. The default logger discards
// everything.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShutdownTimeout sets how long Stop waits for in-flight requests.
func WithShutdownTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// NewServer creates a Server listening on cfg.Addr.
func NewServer(cfg Config, handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		addr:            cfg.Addr(),
		runningMessage:  cfg.RunningMessage(),
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		handler:         handler,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 30 * time.Second
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the listener without serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully. Listen must be called first. Serve returns nil after a clean
// shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return errors.New("slimrouter: Serve called before Listen")
	}
	server, listener := s.server, s.listener
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, s.runningMessage, "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Stop gracefully shuts the server down. It returns immediately if the
// server is not listening.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server", "timeout", s.shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	if err != nil {
		s.logger.Error("server shutdown error", "error", err)
		return err
	}
	return nil
}

// Addr returns the address the server is listening on, or the configured
// address before Listen.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// StartedAt returns when the server started serving. It is zero until Serve
// is called.
func (s *Server) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}
