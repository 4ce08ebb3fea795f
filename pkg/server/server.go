package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/middleware"
	"github.com/vango-dev/patchwire/pkg/render"
)

// Server exposes registered components over HTTP and WebSocket.
//
// HTTP routes:
//
//	GET    /components                     registered names
//	POST   /components/{name}              mount, returns the first render
//	POST   /components/{name}/update       round trip, returns patches
//	DELETE /components/{name}/{id}         discard an instance
//	GET    /ws                             WebSocket channel
//	GET    /metrics                        Prometheus, when metrics are set
//
// Instances mounted over a WebSocket belong to that connection and are
// discarded when it closes.
type Server struct {
	config   *Config
	registry *component.Registry
	renderer *render.Renderer
	metrics  *middleware.Metrics
	upgrader websocket.Upgrader
	handler  http.Handler

	httpServer *http.Server
	logger     *slog.Logger

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// New creates a Server. Registry and Renderer are required.
func New(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Registry == nil {
		return nil, ErrNoRegistry
	}
	if config.Renderer == nil {
		return nil, ErrNoRenderer
	}
	config = config.withDefaults()

	s := &Server{
		config:   config,
		registry: config.Registry,
		renderer: config.Renderer,
		metrics:  config.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: slog.Default().With("component", "server"),
		conns:  make(map[*conn]struct{}),
	}
	s.handler = s.routes()
	return s, nil
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Handler returns the HTTP handler, for mounting in another router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.Handler)
	if s.config.TracerProvider != nil {
		r.Use(middleware.OpenTelemetry(middleware.WithTracerProvider(s.config.TracerProvider)))
	}

	r.Route("/components", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/{name}", s.handleMount)
		r.Post("/{name}/update", s.handleUpdate)
		r.Delete("/{name}/{id}", s.handleDiscard)
	})
	r.Get("/ws", s.HandleWebSocket)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves on the configured address until SIGINT or SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting requests, closes open WebSocket connections and
// waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.httpServer
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.shutdown()
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) track(c *conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// ConnectionCount returns the number of open WebSocket connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
