package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Minimal node form, shared by both modes:
//
//	element: {"tag":"li","attrs":{"key":"b"},"children":[...]}
//	text:    {"text":"B"}
//	comment: {"comment":" note "}
//
// attrs and children are omitted when empty. Paths and keys are not sent;
// the key travels as an attribute.

// EncodeNode writes the minimal form of n.
func EncodeNode(n *vdom.VNode) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *vdom.VNode, depth int) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	if depth >= MaxVNodeDepth {
		return ErrMaxDepthExceeded
	}

	o := beginObject(buf)
	switch n.Type {
	case vdom.NodeText:
		o.key("text")
		writeString(buf, n.Text)
	case vdom.NodeComment:
		o.key("comment")
		writeString(buf, n.Text)
	case vdom.NodeElement:
		o.key("tag")
		writeString(buf, n.Tag)
		if len(n.Attrs) > 0 {
			o.key("attrs")
			writeAttrs(buf, n.Attrs)
		}
		if len(n.Children) > 0 {
			o.key("children")
			buf.WriteByte('[')
			for i, child := range n.Children {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeNode(buf, child, depth+1); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
		}
	default:
		return fmt.Errorf("%w: node type %d", ErrInvalidNode, n.Type)
	}
	o.end()
	return nil
}

func writeAttrs(buf *bytes.Buffer, attrs vdom.Attributes) {
	o := beginObject(buf)
	for _, a := range attrs {
		o.key(a.Name)
		writeString(buf, a.Value)
	}
	o.end()
}

// wireNode is the decoding shape of the minimal node form.
type wireNode struct {
	Tag      *string           `json:"tag"`
	Text     *string           `json:"text"`
	Comment  *string           `json:"comment"`
	Attrs    json.RawMessage   `json:"attrs"`
	Children []json.RawMessage `json:"children"`
}

// DecodeNode reads a minimal node, enforcing MaxVNodeDepth.
func DecodeNode(data []byte) (*vdom.VNode, error) {
	return decodeNode(data, newDepthContext(MaxVNodeDepth))
}

func decodeNode(data []byte, dc *depthContext) (*vdom.VNode, error) {
	if err := dc.enter(); err != nil {
		return nil, err
	}
	defer dc.leave()

	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}

	switch {
	case w.Text != nil:
		return vdom.Text(*w.Text), nil
	case w.Comment != nil:
		return vdom.Comment(*w.Comment), nil
	case w.Tag != nil:
		attrs, err := decodeAttrs(w.Attrs)
		if err != nil {
			return nil, err
		}
		el := vdom.Element(*w.Tag, attrs)
		for _, raw := range w.Children {
			child, err := decodeNode(raw, dc)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		}
		return el, nil
	default:
		return nil, fmt.Errorf("%w: missing tag, text or comment", ErrInvalidNode)
	}
}

// decodeAttrs reads a JSON object into Attributes, keeping key order.
func decodeAttrs(data json.RawMessage) (vdom.Attributes, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: attrs: %v", ErrInvalidNode, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: attrs must be an object", ErrInvalidNode)
	}

	var attrs vdom.Attributes
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: attrs: %v", ErrInvalidNode, err)
		}
		name, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: attr %q: %v", ErrInvalidNode, name, err)
		}
		attrs = attrs.Set(name, value)
	}
	return attrs, nil
}
