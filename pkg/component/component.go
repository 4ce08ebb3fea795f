package component

import (
	"context"

	"github.com/google/uuid"

	"github.com/vango-dev/patchwire/pkg/protocol"
)

// Component is a server-side UI unit. Render is the external render
// callback: it turns the component's current fields into markup.
type Component interface {
	ID() string
	State() map[string]any
	Render(ctx context.Context) (string, error)
}

// Optional capabilities. The renderer and server probe for these with type
// assertions.
type (
	// Schemed components expose their field policy.
	Schemed interface {
		Schema() *Schema
	}

	// Hydrator restores fields from verified client state.
	Hydrator interface {
		Hydrate(state map[string]any) error
	}

	// Setter accepts a single client write. Field may be a dotted path.
	Setter interface {
		Set(field string, value any) error
	}

	// Caller invokes a named action.
	Caller interface {
		Call(ctx context.Context, method string, params []any) error
	}

	// EventSource holds events raised during a cycle until they are read.
	EventSource interface {
		Events() []protocol.Event
		BrowserEvents() []protocol.BrowserEvent
		ClearEvents()
	}

	// Validated components report per-field validation errors.
	Validated interface {
		Errors() map[string][]string
	}

	// URLBound components mirror some properties into the query string.
	URLBound interface {
		QueryString() map[string]any
	}

	// Listener components subscribe to named cross-component events.
	Listener interface {
		Listeners() []string
	}
)

// Call is a method invocation requested by the client.
type Call struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

// NewID returns a fresh component instance id.
func NewID() string {
	return uuid.NewString()
}

// PublicState returns the state the client may see. Hidden fields are
// removed when the component has a schema.
func PublicState(c Component) map[string]any {
	state := c.State()
	if s, ok := c.(Schemed); ok && s.Schema() != nil {
		return s.Schema().PublicState(state)
	}
	if state == nil {
		state = map[string]any{}
	}
	return state
}
