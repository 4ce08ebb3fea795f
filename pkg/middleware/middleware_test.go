package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
}

func TestMetricsRecordFunctions(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRender("update", 10*time.Millisecond, nil)
	m.RecordRender("update", time.Millisecond, errors.New("snapshot: load c1: boom"))
	m.RecordDiff(time.Millisecond)
	m.RecordPatches([]vdom.Patch{
		vdom.NewRemovePatch(vdom.Path{0}),
		vdom.NewRemovePatch(vdom.Path{1}),
		vdom.NewUpdateTextPatch(vdom.Path{2}, "x"),
	})
	m.RecordSignatureFailure()
	m.RecordSnapshotError("save")
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.RecordWebSocketError("read")

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"render success", testutil.ToFloat64(m.renderTotal.WithLabelValues("update", "success")), 1},
		{"render snapshot error", testutil.ToFloat64(m.renderTotal.WithLabelValues("update", "snapshot")), 1},
		{"remove patches", testutil.ToFloat64(m.patchesTotal.WithLabelValues("remove")), 2},
		{"update_text patches", testutil.ToFloat64(m.patchesTotal.WithLabelValues("update_text")), 1},
		{"signature failures", testutil.ToFloat64(m.signatureFailures), 1},
		{"snapshot errors", testutil.ToFloat64(m.snapshotErrors.WithLabelValues("save")), 1},
		{"active connections", testutil.ToFloat64(m.activeConnections), 1},
		{"ws errors", testutil.ToFloat64(m.wsErrors.WithLabelValues("read")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if n := testutil.CollectAndCount(m.diffDuration); n != 1 {
		t.Errorf("diff histogram series = %d", n)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRender("initial", time.Second, nil)
	m.RecordDiff(time.Second)
	m.RecordPatches([]vdom.Patch{vdom.NewRemovePatch(nil)})
	m.RecordSignatureFailure()
	m.RecordSnapshotError("load")
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.RecordWebSocketError("x")

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if got := m.Handler(h); got == nil {
		t.Error("nil Metrics.Handler returned nil")
	}
}

func TestMetricsHandlerUsesRoutePattern(t *testing.T) {
	m := newTestMetrics(t)
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Post("/components/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, name := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/components/"+name, nil))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/components/{name}", "POST", "201")); got != 2 {
		t.Errorf("POST /components/{name} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/ok", "GET", "200")); got != 1 {
		t.Errorf("GET /ok = %v, want 1", got)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  string
		want string
	}{
		{"context deadline exceeded", "timeout"},
		{"read timeout", "timeout"},
		{"context canceled", "canceled"},
		{"snapshot: save c1: disk full", "snapshot"},
		{"signature: invalid signature", "signature"},
		{"protocol: encode failed", "encode"},
		{"something else", "error"},
	}
	for _, tc := range tests {
		if got := categorizeError(errors.New(tc.err)); got != tc.want {
			t.Errorf("categorizeError(%q) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

// recordingProvider is a TracerProvider that keeps every span it starts.
type recordingProvider struct {
	embedded.TracerProvider
	mu    sync.Mutex
	spans []*recordingSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{p: p}
}

type recordingTracer struct {
	embedded.Tracer
	p *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordingSpan{Span: noop.Span{}, name: name, kind: cfg.SpanKind(), attrs: cfg.Attributes()}
	t.p.mu.Lock()
	t.p.spans = append(t.p.spans, s)
	t.p.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordingSpan struct {
	trace.Span
	name   string
	kind   trace.SpanKind
	attrs  []attribute.KeyValue
	status codes.Code
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *recordingSpan) SetStatus(c codes.Code, _ string)       { s.status = c }
func (s *recordingSpan) End(...trace.SpanEndOption)             { s.ended = true }

func (s *recordingSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpenTelemetryMiddleware(t *testing.T) {
	tp := &recordingProvider{}
	r := chi.NewRouter()
	r.Use(OpenTelemetry(
		WithTracerProvider(tp),
		WithTracerName("test"),
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	))

	var inner trace.Span
	r.Post("/components/{name}", func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/components/counter", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if len(tp.spans) != 1 {
		t.Fatalf("spans = %d, want 1 (healthz filtered)", len(tp.spans))
	}
	s := tp.spans[0]
	if s.name != "patchwire POST /components/counter" {
		t.Errorf("span name = %q", s.name)
	}
	if s.kind != trace.SpanKindServer || !s.ended || s.status != codes.Error {
		t.Errorf("span kind/ended/status = %v/%v/%v", s.kind, s.ended, s.status)
	}
	if inner != trace.Span(s) {
		t.Error("handler did not see the request span in its context")
	}
	if v, ok := s.attr("http.route"); !ok || v.AsString() != "/components/{name}" {
		t.Errorf("http.route = %v", v.AsString())
	}
	if v, ok := s.attr("http.status_code"); !ok || v.AsInt64() != 500 {
		t.Errorf("http.status_code = %v", v.AsInt64())
	}
	if v, ok := s.attr("test.attr"); !ok || v.AsString() != "ok" {
		t.Error("custom attribute missing")
	}
}
