package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/server/middleware"
	"mercator-hq/switchboard/pkg/telemetry/health"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
)

// readinessRateLimit caps /ready requests per second since each one pings
// the backing stores.
const readinessRateLimit = 10

// Options carries the optional collaborators of a Server.
type Options struct {
	// Checker serves /health, /ready and /version when set.
	Checker *health.Checker

	// Metrics serves Prometheus metrics on MetricsPath when enabled.
	Metrics     *metrics.Collector
	MetricsPath string

	// Build information reported by /version.
	Version   string
	Commit    string
	BuildTime string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the HTTP front end of the orchestrator.
type Server struct {
	config     *config.ServerConfig
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a Server for svc.
func New(cfg *config.ServerConfig, svc Orchestrator, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		logger: opts.Logger.With("component", "server"),
	}
	s.handler = s.setupRoutes(svc, opts)
	return s
}

// setupRoutes configures routes and the middleware chain.
func (s *Server) setupRoutes(svc Orchestrator, opts Options) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{svc: svc, logger: s.logger}
	mux.HandleFunc("POST /v1/select", h.selectProvider)
	mux.HandleFunc("POST /v1/outcomes", h.reportOutcome)
	mux.HandleFunc("POST /v1/sweep", h.runSweep)
	mux.HandleFunc("GET /v1/dashboard", h.dashboard)

	if opts.Checker != nil {
		mux.HandleFunc("/health", opts.Checker.LivenessHandler())
		mux.HandleFunc("/ready", health.RateLimitedHandler(opts.Checker.ReadinessHandler(), readinessRateLimit))
		mux.HandleFunc("/version", health.VersionHandler(opts.Version, opts.Commit, opts.BuildTime))
	}

	if opts.Metrics != nil && opts.Metrics.Enabled() {
		path := opts.MetricsPath
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle("GET "+path, opts.Metrics.Handler())
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.Recovery(s.logger),
		middleware.Timeout(s.config.RequestTimeout),
	)
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting switchboard server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("switchboard server stopped")
	})

	return shutdownErr
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
