package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/zotgate/pkg/observability"
	"github.com/rhuss/zotgate/pkg/transport"
)

// Server wraps an http.Server with the transport adapter and manages
// the full lifecycle including startup and graceful shutdown.
//
// Liveness (GET /healthz), engine readiness (GET /readyz) and, when
// enabled, Prometheus metrics are matched exactly; every other request goes
// to the adapter with its path as received.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger

	// MetricsPath is where Prometheus metrics are served. Empty disables
	// the endpoint.
	MetricsPath string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":1969",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
		MetricsPath:     "/metrics",
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithTimeouts sets the http.Server read, write and idle timeouts.
func WithTimeouts(read, write, idle time.Duration) ServerOption {
	return func(s *Server) {
		s.config.ReadTimeout = read
		s.config.WriteTimeout = write
		s.config.IdleTimeout = idle
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// WithMetricsPath sets the metrics endpoint path. An empty path disables it.
func WithMetricsPath(path string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = path }
}

// NewServer creates a new transport server around adapter.
func NewServer(adapter *Adapter, opts ...ServerOption) *Server {
	s := &Server{
		adapter: adapter,
		config:  DefaultServerConfig(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s
}

// hostHandler serves the probe and metrics endpoints on exact GET/HEAD
// paths and hands every other request to the adapter untouched. Paths are
// never cleaned or redirected.
type hostHandler struct {
	adapter http.Handler
	cors    transport.CORS
	get     map[string]http.Handler
}

func (h *hostHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		if handler, ok := h.get[r.URL.Path]; ok {
			h.cors.Apply(w.Header(), r.Header.Get("Origin"))
			handler.ServeHTTP(w, r)
			return
		}
	}
	h.adapter.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	h := &hostHandler{
		adapter: observability.MetricsMiddleware(s.adapter.Routes().Paths())(s.adapter),
		cors:    s.adapter.cors,
		get: map[string]http.Handler{
			"/healthz": http.HandlerFunc(s.healthz),
			"/readyz":  http.HandlerFunc(s.readyz),
		},
	}
	if s.config.MetricsPath != "" {
		h.get[s.config.MetricsPath] = promhttp.Handler()
	}
	return h
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	transport.WriteText(w, http.StatusOK, "ok")
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.adapter.engine != nil && !s.adapter.engine.Ready() {
		transport.WriteText(w, http.StatusServiceUnavailable, "engine not initialized")
		return
	}
	transport.WriteText(w, http.StatusOK, "ready")
}

// Handler returns the host handler. Use it to test the full server with
// httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down,
// waiting for in-flight requests to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}

// Run starts the server and blocks until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("server starting", slog.String("addr", s.config.Addr))
	return s.serve(ctx, s.httpServer.ListenAndServe)
}

// ServeOn starts the server on the given listener and blocks until ctx is
// done or the server is shut down.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, func() error { return s.httpServer.Serve(ln) })
}

func (s *Server) serve(ctx context.Context, serve func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- serve() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
