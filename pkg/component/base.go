package component

import (
	"sync"

	"github.com/vango-dev/patchwire/pkg/protocol"
)

// Base carries the bookkeeping every component needs: id, schema, pending
// events and validation errors. Embed it by pointer or value; its methods
// satisfy EventSource, Validated and Schemed.
type Base struct {
	mu            sync.Mutex
	id            string
	schema        *Schema
	events        []protocol.Event
	browserEvents []protocol.BrowserEvent
	errors        map[string][]string
}

// ID returns the instance id.
func (b *Base) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Schema returns the field policy bound at mount time.
func (b *Base) Schema() *Schema {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.schema
}

func (b *Base) bind(id string, schema *Schema) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = id
	b.schema = schema
}

// Emit raises a cross-component event for every listener.
func (b *Base) Emit(name string, params ...any) {
	b.EmitTo("", name, params...)
}

// EmitTo raises a cross-component event for components named to.
func (b *Base) EmitTo(to, name string, params ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, protocol.Event{Name: name, Params: params, To: to})
}

// Dispatch raises a DOM event in the browser.
func (b *Base) Dispatch(name string, detail any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.browserEvents = append(b.browserEvents, protocol.BrowserEvent{Name: name, Detail: detail})
}

// Events returns a copy of the pending events.
func (b *Base) Events() []protocol.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]protocol.Event(nil), b.events...)
}

// BrowserEvents returns a copy of the pending browser events.
func (b *Base) BrowserEvents() []protocol.BrowserEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]protocol.BrowserEvent(nil), b.browserEvents...)
}

// ClearEvents drops all pending events.
func (b *Base) ClearEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	b.browserEvents = nil
}

// AddError records a validation error for field.
func (b *Base) AddError(field, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errors == nil {
		b.errors = make(map[string][]string)
	}
	b.errors[field] = append(b.errors[field], message)
}

// Errors returns the recorded validation errors, or nil.
func (b *Base) Errors() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.errors) == 0 {
		return nil
	}
	out := make(map[string][]string, len(b.errors))
	for k, v := range b.errors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ClearErrors drops all validation errors.
func (b *Base) ClearErrors() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors = nil
}
