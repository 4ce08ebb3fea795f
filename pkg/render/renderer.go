package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/middleware"
	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/signature"
	"github.com/vango-dev/patchwire/pkg/snapshot"
	"github.com/vango-dev/patchwire/pkg/vdom"
)

// ErrNoSigner is returned by New when the config carries no signer.
var ErrNoSigner = errors.New("render: signer is required")

// Config configures a Renderer.
type Config struct {
	// Signer signs the state of every payload. Required.
	Signer *signature.Signer

	// Store keeps the last tree of every component id.
	// Defaults to a new snapshot.MemoryStore.
	Store snapshot.Store

	// Mode selects the wire shape of encoded responses.
	Mode protocol.Mode

	// Metrics is optional; a nil value records nothing.
	Metrics *middleware.Metrics

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Initial is the payload of a first render.
type Initial struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	HTML        string         `json:"html"`
	State       map[string]any `json:"state"`
	Fingerprint string         `json:"fingerprint"`
	Signature   string         `json:"signature"`
	Version     uint64         `json:"version"`
	Listeners   []string       `json:"listeners,omitempty"`
}

// Renderer runs render cycles: it calls a component's render callback,
// parses the markup, diffs it against the stored snapshot and packages the
// optimized patches with the signed state.
//
// Updates for the same component id are serialized. The snapshot store is
// owned by the Renderer and released by Close.
type Renderer struct {
	signer  *signature.Signer
	store   snapshot.Store
	encoder *protocol.Encoder
	metrics *middleware.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a Renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.Signer == nil {
		return nil, ErrNoSigner
	}
	if cfg.Store == nil {
		cfg.Store = snapshot.NewMemoryStore()
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Renderer{
		signer:  cfg.Signer,
		store:   cfg.Store,
		encoder: protocol.NewEncoder(cfg.Mode),
		metrics: cfg.Metrics,
		tracer:  tp.Tracer("patchwire/render"),
		logger:  slog.Default().With("component", "render"),
		locks:   make(map[string]*idLock),
	}, nil
}

// Logger returns the renderer's logger.
func (r *Renderer) Logger() *slog.Logger {
	return r.logger
}

// SetLogger replaces the renderer's logger.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Encoder returns the encoder matching the renderer's wire mode.
func (r *Renderer) Encoder() *protocol.Encoder {
	return r.encoder
}

// Signer returns the signer used for payloads.
func (r *Renderer) Signer() *signature.Signer {
	return r.signer
}

// RenderInitial renders c for the first time and stores its tree as
// version 1.
func (r *Renderer) RenderInitial(ctx context.Context, c component.Component) (res *Initial, err error) {
	id := c.ID()
	ctx, span := r.tracer.Start(ctx, "render.initial", trace.WithAttributes(attribute.String("component.id", id)))
	start := time.Now()
	defer func() {
		r.finish(span, "initial", start, err)
	}()

	unlock := r.lock(id)
	defer unlock()

	markup, err := c.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("render: %s: %w", id, err)
	}

	tree := vdom.Parse(markup)
	const version = 1
	if err := r.store.Save(ctx, id, &snapshot.Snapshot{Tree: tree, Version: version}); err != nil {
		r.metrics.RecordSnapshotError("save")
		return nil, fmt.Errorf("render: save snapshot %s: %w", id, err)
	}

	state := component.PublicState(c)
	sig, err := r.signer.Sign(state, id)
	if err != nil {
		return nil, fmt.Errorf("render: sign %s: %w", id, err)
	}

	res = &Initial{
		ID:          id,
		HTML:        markup,
		State:       state,
		Fingerprint: signature.Fingerprint(state),
		Signature:   sig,
		Version:     version,
	}
	if l, ok := c.(component.Listener); ok {
		res.Listeners = l.Listeners()
	}
	span.SetAttributes(attribute.Int("render.nodes", tree.Count()))
	return res, nil
}

// RenderUpdate re-renders c, diffs the result against the stored snapshot
// (or nothing, when there is none) and replaces the snapshot. Pending events
// are moved into the envelope and cleared from the component.
func (r *Renderer) RenderUpdate(ctx context.Context, c component.Component) (env *protocol.Envelope, err error) {
	id := c.ID()
	ctx, span := r.tracer.Start(ctx, "render.update", trace.WithAttributes(attribute.String("component.id", id)))
	start := time.Now()
	defer func() {
		r.finish(span, "update", start, err)
	}()

	unlock := r.lock(id)
	defer unlock()

	markup, err := c.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("render: %s: %w", id, err)
	}

	snap, err := r.store.Load(ctx, id)
	if err != nil {
		r.metrics.RecordSnapshotError("load")
		return nil, fmt.Errorf("render: load snapshot %s: %w", id, err)
	}
	var (
		prev    *vdom.VNode
		version uint64
	)
	if snap != nil {
		prev, version = snap.Tree, snap.Version
	}

	diffStart := time.Now()
	next := vdom.Parse(markup)
	patches := vdom.OptimizePatches(vdom.Diff(prev, next))
	r.metrics.RecordDiff(time.Since(diffStart))

	version++
	if err := r.store.Save(ctx, id, &snapshot.Snapshot{Tree: next, Version: version}); err != nil {
		r.metrics.RecordSnapshotError("save")
		return nil, fmt.Errorf("render: save snapshot %s: %w", id, err)
	}

	state := component.PublicState(c)
	sig, err := r.signer.Sign(state, id)
	if err != nil {
		return nil, fmt.Errorf("render: sign %s: %w", id, err)
	}

	env = &protocol.Envelope{
		ID:          id,
		Version:     version,
		Patches:     patches,
		State:       state,
		Fingerprint: signature.Fingerprint(state),
		Signature:   sig,
	}
	if v, ok := c.(component.Validated); ok {
		if errs := v.Errors(); len(errs) > 0 {
			env.Errors = errs
		}
	}
	if u, ok := c.(component.URLBound); ok {
		if q := u.QueryString(); len(q) > 0 {
			env.QueryString = q
		}
	}
	if es, ok := c.(component.EventSource); ok {
		env.Events = es.Events()
		env.BrowserEvents = es.BrowserEvents()
		es.ClearEvents()
	}

	r.metrics.RecordPatches(patches)
	span.SetAttributes(
		attribute.Int("render.patches", len(patches)),
		attribute.Int64("render.version", int64(version)),
	)
	r.logger.Debug("render update",
		"id", id,
		"version", version,
		"patches", len(patches))
	return env, nil
}

// Respond encodes env as a success response in the renderer's mode.
func (r *Renderer) Respond(env *protocol.Envelope) ([]byte, error) {
	return r.encoder.ToResponse(env)
}

// Discard drops the snapshot of a torn-down component.
func (r *Renderer) Discard(ctx context.Context, id string) error {
	unlock := r.lock(id)
	defer unlock()

	if err := r.store.Delete(ctx, id); err != nil {
		r.metrics.RecordSnapshotError("delete")
		return fmt.Errorf("render: discard %s: %w", id, err)
	}
	return nil
}

// Close releases the snapshot store.
func (r *Renderer) Close() error {
	return r.store.Close()
}

func (r *Renderer) finish(span trace.Span, kind string, start time.Time, err error) {
	r.metrics.RecordRender(kind, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("render failed", "kind", kind, "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// lock serializes work on one component id.
func (r *Renderer) lock(id string) func() {
	r.mu.Lock()
	l := r.locks[id]
	if l == nil {
		l = &idLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}
