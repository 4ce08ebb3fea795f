package protocol

import (
	"bytes"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Event is a cross-component event raised during a render cycle.
type Event struct {
	Name   string `json:"name" msgpack:"name"`
	Params []any  `json:"params,omitempty" msgpack:"params,omitempty"`
	To     string `json:"to,omitempty" msgpack:"to,omitempty"` // Target component name; empty broadcasts
}

// BrowserEvent is dispatched as a DOM event in the browser.
type BrowserEvent struct {
	Name   string `json:"name" msgpack:"name"`
	Detail any    `json:"detail,omitempty" msgpack:"detail,omitempty"`
}

// Envelope is the payload of one render cycle.
//
// State is always the full public state, never a delta, so a lost or
// reordered envelope cannot leave the client permanently out of sync.
// Version increases with every render cycle of the component; receivers
// drop envelopes that are not newer than the last one applied.
type Envelope struct {
	ID            string
	Version       uint64
	Patches       []vdom.Patch
	State         map[string]any
	Fingerprint   string
	Signature     string
	Errors        map[string][]string
	QueryString   map[string]any
	Events        []Event
	BrowserEvents []BrowserEvent
}

// EncodeEnvelope writes the envelope with descriptive keys:
//
//	{"id","version","patches","state","fingerprint","signature",
//	 "errors"?,"queryString"?,"events"?,"browserEvents"?}
//
// Patches use the encoder's mode.
func (e *Encoder) EncodeEnvelope(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.writeEnvelope(&buf, env, envelopeKeys); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToResponse wraps the envelope in the success response:
//
//	{"s":true,"c":{"i","v","p","st","f","sg","e"?,"q"?,"ev"?,"be"?}}
//
// st is the full state and is always present. e is present only when there
// are validation errors, q only when there are URL-bound properties.
func (e *Encoder) ToResponse(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	o := beginObject(&buf)
	o.key("s")
	buf.WriteString("true")
	o.key("c")
	if err := e.writeEnvelope(&buf, env, responseKeys); err != nil {
		return nil, err
	}
	o.end()
	return buf.Bytes(), nil
}

type envKeys struct {
	id, version, patches, state, fingerprint, signature string
	errors, query, events, browserEvents                string
}

var (
	envelopeKeys = envKeys{
		id: "id", version: "version", patches: "patches", state: "state",
		fingerprint: "fingerprint", signature: "signature",
		errors: "errors", query: "queryString", events: "events", browserEvents: "browserEvents",
	}
	responseKeys = envKeys{
		id: "i", version: "v", patches: "p", state: "st",
		fingerprint: "f", signature: "sg",
		errors: "e", query: "q", events: "ev", browserEvents: "be",
	}
)

func (e *Encoder) writeEnvelope(buf *bytes.Buffer, env *Envelope, k envKeys) error {
	o := beginObject(buf)

	o.key(k.id)
	writeString(buf, env.ID)

	if err := o.field(k.version, env.Version); err != nil {
		return err
	}

	o.key(k.patches)
	if err := e.writePatches(buf, env.Patches); err != nil {
		return err
	}

	state := env.State
	if state == nil {
		state = map[string]any{}
	}
	if err := o.field(k.state, state); err != nil {
		return err
	}

	o.key(k.fingerprint)
	writeString(buf, env.Fingerprint)
	o.key(k.signature)
	writeString(buf, env.Signature)

	if len(env.Errors) > 0 {
		if err := o.field(k.errors, env.Errors); err != nil {
			return err
		}
	}
	if len(env.QueryString) > 0 {
		if err := o.field(k.query, env.QueryString); err != nil {
			return err
		}
	}
	if len(env.Events) > 0 {
		if err := o.field(k.events, env.Events); err != nil {
			return err
		}
	}
	if len(env.BrowserEvents) > 0 {
		if err := o.field(k.browserEvents, env.BrowserEvents); err != nil {
			return err
		}
	}

	o.end()
	return nil
}

// ToErrorResponse writes {"s":false,"e":{"code","message","fatal"}}.
func ToErrorResponse(em *ErrorMessage) []byte {
	var buf bytes.Buffer
	o := beginObject(&buf)
	o.key("s")
	buf.WriteString("false")
	o.key("e")
	// ErrorMessage has only scalar fields.
	_ = writeValue(&buf, em)
	o.end()
	return buf.Bytes()
}
