package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Decoder reads patches, envelopes and responses.
//
// The key set is chosen by the decoder's mode, never guessed from the
// payload. A minified payload read by a full-mode decoder fails instead of
// being half-understood.
type Decoder struct {
	mode   Mode
	limits Limits
}

// NewDecoder creates a Decoder for the given mode with default limits.
func NewDecoder(mode Mode) *Decoder {
	return &Decoder{mode: mode, limits: DefaultLimits()}
}

// NewDecoderWithLimits creates a Decoder with custom limits.
// Zero fields fall back to the defaults.
func NewDecoderWithLimits(mode Mode, limits Limits) *Decoder {
	return &Decoder{mode: mode, limits: limits.withDefaults()}
}

// Mode returns the decoder's mode.
func (d *Decoder) Mode() Mode {
	return d.mode
}

// DecodePatch reads a single patch object.
func (d *Decoder) DecodePatch(data []byte) (vdom.Patch, error) {
	w, err := d.mode.unmarshalPatch(data)
	if err != nil {
		return vdom.Patch{}, err
	}
	return d.convert(w)
}

// DecodePatches reads a JSON array of patches.
func (d *Decoder) DecodePatches(data []byte) ([]vdom.Patch, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return d.decodePatchList(raws)
}

func (d *Decoder) decodePatchList(raws []json.RawMessage) ([]vdom.Patch, error) {
	if len(raws) > d.limits.Patches {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPatches, len(raws), d.limits.Patches)
	}
	patches := make([]vdom.Patch, 0, len(raws))
	for i, raw := range raws {
		p, err := d.DecodePatch(raw)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func (d *Decoder) convert(w wirePatch) (vdom.Patch, error) {
	t, ok := d.mode.parseType(w.Type)
	if !ok {
		return vdom.Patch{}, fmt.Errorf("%w: unknown type %q for %s mode", ErrInvalidPatch, w.Type, d.mode)
	}
	if len(w.Path) > d.limits.PathLength {
		return vdom.Patch{}, fmt.Errorf("%w: %d segments", ErrPathTooLong, len(w.Path))
	}
	for _, seg := range w.Path {
		if seg < 0 {
			return vdom.Patch{}, fmt.Errorf("%w: negative path segment", ErrInvalidPatch)
		}
	}

	p := vdom.Patch{Type: t, Path: vdom.Path(w.Path)}
	if p.Path == nil {
		p.Path = vdom.Path{}
	}
	k := d.mode.keys()

	switch t {
	case vdom.PatchRemove:
		return p, nil

	case vdom.PatchCreate, vdom.PatchReplace:
		if len(w.Data) == 0 || string(w.Data) == "null" {
			return p, fmt.Errorf("%w: %s without node", ErrInvalidPatch, t)
		}
		n, err := decodeNode(w.Data, newDepthContext(d.limits.VNodeDepth))
		if err != nil {
			return p, err
		}
		p.Node = n
		return p, nil
	}

	fields, err := dataFields(w.Data)
	if err != nil {
		return p, err
	}

	switch t {
	case vdom.PatchUpdateText:
		raw, ok := fields[k.text]
		if !ok {
			return p, fmt.Errorf("%w: %s without %q", ErrInvalidPatch, t, k.text)
		}
		if err := json.Unmarshal(raw, &p.Text); err != nil {
			return p, fmt.Errorf("%w: %q: %v", ErrInvalidPatch, k.text, err)
		}

	case vdom.PatchUpdateAttrs:
		if raw, ok := fields[k.set]; ok {
			set, err := decodeAttrs(raw)
			if err != nil {
				return p, err
			}
			p.Set = set
		}
		if raw, ok := fields[k.remove]; ok {
			if err := json.Unmarshal(raw, &p.Remove); err != nil {
				return p, fmt.Errorf("%w: %q: %v", ErrInvalidPatch, k.remove, err)
			}
		}

	case vdom.PatchReorder:
		raw, ok := fields[k.order]
		if !ok {
			return p, fmt.Errorf("%w: %s without %q", ErrInvalidPatch, t, k.order)
		}
		if err := json.Unmarshal(raw, &p.Order); err != nil {
			return p, fmt.Errorf("%w: %q: %v", ErrInvalidPatch, k.order, err)
		}
	}
	return p, nil
}

func dataFields(data json.RawMessage) (map[string]json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidPatch)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidPatch, err)
	}
	return fields, nil
}

// DecodeEnvelope reads an envelope written by EncodeEnvelope.
func (d *Decoder) DecodeEnvelope(data []byte) (*Envelope, error) {
	return d.decodeEnvelope(data, envelopeKeys)
}

// DecodeResponse reads a response written by ToResponse or ToErrorResponse.
// Exactly one of the returned envelope and error message is non-nil when
// err is nil.
func (d *Decoder) DecodeResponse(data []byte) (*Envelope, *ErrorMessage, error) {
	var r struct {
		S bool            `json:"s"`
		C json.RawMessage `json:"c"`
		E *ErrorMessage   `json:"e"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if !r.S {
		if r.E == nil {
			r.E = NewError(ErrUnknown, "")
		}
		return nil, r.E, nil
	}
	env, err := d.decodeEnvelope(r.C, responseKeys)
	if err != nil {
		return nil, nil, err
	}
	return env, nil, nil
}

func (d *Decoder) decodeEnvelope(data []byte, k envKeys) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	env := &Envelope{}
	decode := func(key string, v any) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidEnvelope, key, err)
		}
		return nil
	}

	if err := decode(k.id, &env.ID); err != nil {
		return nil, err
	}
	if err := decode(k.version, &env.Version); err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := decode(k.patches, &raws); err != nil {
		return nil, err
	}
	patches, err := d.decodePatchList(raws)
	if err != nil {
		return nil, err
	}
	env.Patches = patches

	for key, v := range map[string]any{
		k.state:         &env.State,
		k.fingerprint:   &env.Fingerprint,
		k.signature:     &env.Signature,
		k.errors:        &env.Errors,
		k.query:         &env.QueryString,
		k.events:        &env.Events,
		k.browserEvents: &env.BrowserEvents,
	} {
		if err := decode(key, v); err != nil {
			return nil, err
		}
	}
	if env.State == nil {
		env.State = map[string]any{}
	}
	return env, nil
}
