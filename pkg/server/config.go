package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/middleware"
	"github.com/vango-dev/patchwire/pkg/render"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address used by Run.
	// Default: ":8080".
	Addr string

	// Registry resolves component names. Required.
	Registry *component.Registry

	// Renderer runs render cycles and owns the snapshot store. Required.
	Renderer *render.Renderer

	// Metrics is optional. When set, requests are counted and /metrics
	// serves Gatherer.
	Metrics *middleware.Metrics

	// Gatherer backs the /metrics endpoint.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// TracerProvider enables request spans when set.
	TracerProvider trace.TracerProvider

	// AllowedOrigins lists the origins, besides the request host, that may
	// open a WebSocket. "*" allows any origin.
	AllowedOrigins []string

	// CheckOrigin overrides the origin check built from AllowedOrigins.
	CheckOrigin func(r *http.Request) bool

	// ReadTimeout bounds HTTP request reads and the idle time of a
	// WebSocket between messages.
	// Default: 60s.
	ReadTimeout time.Duration

	// WriteTimeout bounds HTTP response and WebSocket writes.
	// Default: 10s.
	WriteTimeout time.Duration

	// IdleTimeout is the keep-alive timeout of the HTTP server.
	// Default: 120s.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s.
	ShutdownTimeout time.Duration

	// MaxMessageSize limits request bodies and WebSocket messages.
	// Default: 1MB.
	MaxMessageSize int64

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	// Default: 4096 each.
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultConfig returns a Config with defaults for everything except the
// registry and renderer.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxMessageSize:  1 << 20,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	out := *c
	d := DefaultConfig()
	if out.Addr == "" {
		out.Addr = d.Addr
	}
	if out.Gatherer == nil {
		out.Gatherer = prometheus.DefaultGatherer
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = OriginCheck(out.AllowedOrigins)
	}
	return &out
}

// pingInterval keeps pings well inside the read deadline.
func (c *Config) pingInterval() time.Duration {
	return c.ReadTimeout * 9 / 10
}

// OriginCheck returns a WebSocket origin check that accepts requests without
// an Origin header, same-origin requests and the listed origins.
func OriginCheck(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		if set[strings.TrimRight(strings.ToLower(origin), "/")] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return r.Host != "" && strings.EqualFold(u.Host, r.Host)
	}
}
