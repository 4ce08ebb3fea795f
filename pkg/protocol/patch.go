package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Minified type codes.
const (
	CodeCreate      = "c"
	CodeRemove      = "r"
	CodeReplace     = "R"
	CodeUpdateText  = "t"
	CodeUpdateAttrs = "a"
	CodeReorder     = "o"
)

// keys is the key set of one Mode.
type keys struct {
	typ, path, data string
	text            string // update_text content
	set, remove     string // update_attrs
	order           string // reorder
}

var (
	fullKeys = keys{
		typ: "type", path: "path", data: "data",
		text: "text",
		set:  "set", remove: "remove",
		order: "order",
	}
	minKeys = keys{
		typ: "t", path: "p", data: "d",
		text: "x",
		set:  "s", remove: "r",
		order: "o",
	}
)

func (m Mode) keys() keys {
	if m == ModeMinified {
		return minKeys
	}
	return fullKeys
}

// typeName returns the wire name of t under mode m.
func (m Mode) typeName(t vdom.PatchType) string {
	if m != ModeMinified {
		return t.String()
	}
	switch t {
	case vdom.PatchCreate:
		return CodeCreate
	case vdom.PatchRemove:
		return CodeRemove
	case vdom.PatchReplace:
		return CodeReplace
	case vdom.PatchUpdateText:
		return CodeUpdateText
	case vdom.PatchUpdateAttrs:
		return CodeUpdateAttrs
	case vdom.PatchReorder:
		return CodeReorder
	default:
		return ""
	}
}

// parseType maps a wire name under mode m back to a PatchType.
func (m Mode) parseType(s string) (vdom.PatchType, bool) {
	if m != ModeMinified {
		return vdom.ParsePatchType(s)
	}
	switch s {
	case CodeCreate:
		return vdom.PatchCreate, true
	case CodeRemove:
		return vdom.PatchRemove, true
	case CodeReplace:
		return vdom.PatchReplace, true
	case CodeUpdateText:
		return vdom.PatchUpdateText, true
	case CodeUpdateAttrs:
		return vdom.PatchUpdateAttrs, true
	case CodeReorder:
		return vdom.PatchReorder, true
	default:
		return 0, false
	}
}

// EncodePatch writes a single patch.
func (e *Encoder) EncodePatch(p vdom.Patch) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.writePatch(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePatches writes a JSON array of patches in order.
func (e *Encoder) EncodePatches(patches []vdom.Patch) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.writePatches(&buf, patches); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) writePatches(buf *bytes.Buffer, patches []vdom.Patch) error {
	buf.WriteByte('[')
	for i, p := range patches {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := e.writePatch(buf, p); err != nil {
			return fmt.Errorf("patch %d: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func (e *Encoder) writePatch(buf *bytes.Buffer, p vdom.Patch) error {
	k := e.mode.keys()
	name := e.mode.typeName(p.Type)
	if name == "" || name == "unknown" {
		return fmt.Errorf("%w: type %d", ErrInvalidPatch, p.Type)
	}

	o := beginObject(buf)
	o.key(k.typ)
	writeString(buf, name)
	o.key(k.path)
	writeInts(buf, p.Path)

	switch p.Type {
	case vdom.PatchRemove:
		// No payload.

	case vdom.PatchCreate, vdom.PatchReplace:
		if p.Node == nil {
			return fmt.Errorf("%w: %s without node", ErrInvalidPatch, p.Type)
		}
		o.key(k.data)
		if err := writeNode(buf, p.Node, 0); err != nil {
			return err
		}

	case vdom.PatchUpdateText:
		o.key(k.data)
		d := beginObject(buf)
		d.key(k.text)
		writeString(buf, p.Text)
		d.end()

	case vdom.PatchUpdateAttrs:
		o.key(k.data)
		d := beginObject(buf)
		if len(p.Set) > 0 {
			d.key(k.set)
			writeAttrs(buf, p.Set)
		}
		if len(p.Remove) > 0 {
			d.key(k.remove)
			writeStrings(buf, p.Remove)
		}
		d.end()

	case vdom.PatchReorder:
		o.key(k.data)
		d := beginObject(buf)
		d.key(k.order)
		writeInts(buf, p.Order)
		d.end()
	}

	o.end()
	return nil
}

// wirePatch is the decoding shape of a patch; the key names are chosen by
// mode at decode time.
type wirePatch struct {
	Type string
	Path []int
	Data json.RawMessage
}

func (m Mode) unmarshalPatch(data []byte) (wirePatch, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return wirePatch{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	k := m.keys()

	var w wirePatch
	raw, ok := fields[k.typ]
	if !ok {
		return w, fmt.Errorf("%w: missing %q", ErrInvalidPatch, k.typ)
	}
	if err := json.Unmarshal(raw, &w.Type); err != nil {
		return w, fmt.Errorf("%w: %q: %v", ErrInvalidPatch, k.typ, err)
	}
	if raw, ok := fields[k.path]; ok {
		if err := json.Unmarshal(raw, &w.Path); err != nil {
			return w, fmt.Errorf("%w: %q: %v", ErrInvalidPatch, k.path, err)
		}
	}
	w.Data = fields[k.data]
	return w, nil
}
