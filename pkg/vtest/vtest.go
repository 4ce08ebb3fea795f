package vtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/dom"
	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/render"
	"github.com/vango-dev/patchwire/pkg/server"
	"github.com/vango-dev/patchwire/pkg/signature"
	"github.com/vango-dev/patchwire/pkg/snapshot"
)

// DefaultSecret signs state in harnesses that do not set one.
const DefaultSecret = "vtest-secret-0123456789abcdef"

// ErrStale is returned when a response was not newer than the document.
var ErrStale = errors.New("vtest: response was not newer than the document")

// Config configures a Harness.
type Config struct {
	// Secret signs component state. Defaults to DefaultSecret.
	Secret string

	// Mode selects the wire shape of responses.
	Mode protocol.Mode

	// Store keeps snapshots. Defaults to a new snapshot.MemoryStore.
	Store snapshot.Store
}

// Option configures a Harness.
type Option func(*Config)

// WithSecret sets the signing secret.
func WithSecret(secret string) Option {
	return func(c *Config) {
		c.Secret = secret
	}
}

// WithMode sets the wire mode used between server and document.
func WithMode(mode protocol.Mode) Option {
	return func(c *Config) {
		c.Mode = mode
	}
}

// WithStore sets the snapshot store, for persistence tests.
func WithStore(store snapshot.Store) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// Harness is one mounted component instance and the client document that
// displays it.
type Harness struct {
	tb       testing.TB
	name     string
	config   Config
	server   *server.Server
	renderer *render.Renderer
	store    snapshot.Store

	id        string
	signature string
	doc       *dom.Document
	last      []byte
}

// Mount mounts the named component from registry, failing the test if it
// cannot. The renderer and its store are closed when the test ends.
func Mount(tb testing.TB, registry *component.Registry, name string, opts ...Option) *Harness {
	tb.Helper()
	config := Config{Secret: DefaultSecret}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Store == nil {
		config.Store = snapshot.NewMemoryStore()
	}

	signer, err := signature.NewSigner([]byte(config.Secret))
	if err != nil {
		tb.Fatalf("vtest: %v", err)
	}
	renderer, err := render.New(render.Config{
		Signer: signer,
		Store:  config.Store,
		Mode:   config.Mode,
	})
	if err != nil {
		tb.Fatalf("vtest: %v", err)
	}
	tb.Cleanup(func() { renderer.Close() })

	srv, err := server.New(&server.Config{Registry: registry, Renderer: renderer})
	if err != nil {
		tb.Fatalf("vtest: %v", err)
	}

	h := &Harness{
		tb:       tb,
		name:     name,
		config:   config,
		server:   srv,
		renderer: renderer,
		store:    config.Store,
	}
	h.mount()
	return h
}

func (h *Harness) mount() {
	h.tb.Helper()
	init, em := h.server.Mount(context.Background(), h.name)
	if em != nil {
		h.tb.Fatalf("vtest: mount %s: %v", h.name, em)
	}
	// The client only ever sees the JSON form of the first render.
	data, err := json.Marshal(init)
	if err != nil {
		h.tb.Fatalf("vtest: %v", err)
	}
	var wire render.Initial
	if err := json.Unmarshal(data, &wire); err != nil {
		h.tb.Fatalf("vtest: %v", err)
	}
	h.id = wire.ID
	h.signature = wire.Signature
	h.last = nil
	h.doc = dom.New(wire.HTML,
		dom.WithMode(h.config.Mode),
		dom.WithVersion(wire.Version),
		dom.WithState(wire.State))
}

// ID returns the component id.
func (h *Harness) ID() string { return h.id }

// Document returns the client document.
func (h *Harness) Document() *dom.Document { return h.doc }

// HTML returns the markup the document currently shows.
func (h *Harness) HTML() string { return h.doc.HTML() }

// State returns the state the client last received.
func (h *Harness) State() map[string]any { return h.doc.State() }

// Version returns the version of the last applied render cycle.
func (h *Harness) Version() uint64 { return h.doc.Version() }

// Set writes one field.
func (h *Harness) Set(field string, v any) error {
	return h.Send(map[string]any{field: v}, nil)
}

// Call invokes one method.
func (h *Harness) Call(method string, params ...any) error {
	return h.Send(nil, []component.Call{{Method: method, Params: params}})
}

// MustSet is like Set but fails the test on error.
func (h *Harness) MustSet(field string, v any) {
	h.tb.Helper()
	if err := h.Set(field, v); err != nil {
		h.tb.Fatalf("vtest: set %s: %v", field, err)
	}
}

// MustCall is like Call but fails the test on error.
func (h *Harness) MustCall(method string, params ...any) {
	h.tb.Helper()
	if err := h.Call(method, params...); err != nil {
		h.tb.Fatalf("vtest: call %s: %v", method, err)
	}
}

// Send runs one round trip with the given writes and calls. A server error
// is returned as *protocol.ErrorMessage and leaves the document unchanged.
func (h *Harness) Send(updates map[string]any, calls []component.Call) error {
	body, err := json.Marshal(server.UpdateRequest{
		ID:        h.id,
		Name:      h.name,
		State:     h.doc.State(),
		Signature: h.signature,
		Updates:   updates,
		Calls:     calls,
	})
	if err != nil {
		return err
	}
	req, err := server.DecodeUpdate(bytes.NewReader(body))
	if err != nil {
		return err
	}
	data, em := h.server.Update(context.Background(), req)
	if em != nil {
		return em
	}
	return h.apply(data)
}

func (h *Harness) apply(data []byte) error {
	env, em, err := protocol.NewDecoder(h.config.Mode).DecodeResponse(data)
	if err != nil {
		return err
	}
	if em != nil {
		return em
	}
	if !h.doc.ApplyEnvelope(env) {
		return ErrStale
	}
	h.signature = env.Signature
	h.last = data
	return nil
}

// Replay applies the last response again.
func (h *Harness) Replay() error {
	if h.last == nil {
		return ErrStale
	}
	return h.apply(h.last)
}

// Evict drops the server-side snapshot of the instance.
func (h *Harness) Evict() error {
	return h.server.Discard(context.Background(), h.id)
}

// Reload mounts a fresh instance into a new document.
func (h *Harness) Reload() {
	h.tb.Helper()
	h.mount()
}

// Persisted reports whether the store holds a snapshot of the instance.
func (h *Harness) Persisted() bool {
	h.tb.Helper()
	snap, err := h.store.Load(context.Background(), h.id)
	if err != nil {
		h.tb.Fatalf("vtest: load snapshot: %v", err)
	}
	return snap != nil
}

// ExpectContains asserts that the document contains expected.
//
// Example:
//
//	vtest.ExpectContains(t, h, "Count: 3")
func ExpectContains(t testing.TB, h *Harness, expected string) {
	t.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected document to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the document does not contain unexpected.
func ExpectNotContains(t testing.TB, h *Harness, unexpected string) {
	t.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected document to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the document contains a tag.
func ExpectElement(t testing.TB, h *Harness, tag string) {
	t.Helper()
	html := h.HTML()
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected document to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectModel asserts the value shown by the control bound to field.
//
// Example:
//
//	vtest.ExpectModel(t, h, "step", "5")
func ExpectModel(t testing.TB, h *Harness, field, value string) {
	t.Helper()
	n := h.doc.FindModel(field)
	if n == nil {
		t.Errorf("no control bound to %q", field)
		return
	}
	if got := h.doc.Value(n); got != value {
		t.Errorf("control %q shows %q, want %q", field, got, value)
	}
}

// ExpectError asserts that err is a server error with the given code.
func ExpectError(t testing.TB, err error, code protocol.ErrorCode) {
	t.Helper()
	var em *protocol.ErrorMessage
	if !errors.As(err, &em) {
		t.Errorf("expected %s error, got %v", code, err)
		return
	}
	if em.Code != code {
		t.Errorf("expected %s error, got %s: %s", code, em.Code, em.Message)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
