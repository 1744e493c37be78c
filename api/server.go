package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/libintegration/cachingsvc/controller"
	"github.com/libintegration/cachingsvc/health"
	"github.com/libintegration/cachingsvc/limit"
	"github.com/libintegration/cachingsvc/observe"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address.
	// Default: ":8000"
	Addr string

	// ReadTimeout bounds reading the request including the body.
	// Default: 10 seconds
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response.
	// Default: 30 seconds
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds
	ShutdownTimeout time.Duration

	// Limiter applies admission control to the payload endpoints.
	// Nil disables admission control. Health endpoints are never limited.
	Limiter *limit.Limiter
}

// Server serves the cache API over HTTP.
type Server struct {
	config     Config
	controller *controller.Controller
	aggregator *health.Aggregator
	logger     observe.Logger
	httpServer *http.Server
}

// NewServer creates a Server over the given controller. A nil logger is
// replaced with a noop logger.
func NewServer(cfg Config, ctrl *controller.Controller, agg *health.Aggregator, logger observe.Logger) *Server {
	// Apply defaults
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	if agg == nil {
		agg = health.NewAggregator()
	}

	s := &Server{
		config:     cfg,
		controller: ctrl,
		aggregator: agg,
		logger:     logger.WithComponent("api"),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Routes builds the service mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /payload", limit.Middleware(s.config.Limiter, http.HandlerFunc(s.handleResolve)))
	mux.Handle("GET /payload/{id}", limit.Middleware(s.config.Limiter, http.HandlerFunc(s.handleFetch)))
	mux.HandleFunc("GET /healthz", health.LivenessHandler())
	mux.HandleFunc("GET /readyz", health.ReadinessHandler(s.aggregator))
	return mux
}

// ListenAndServe starts serving and blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info(context.Background(), "listening", observe.String("addr", s.config.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
