package vdom

import "strings"

// NodeType is the node variant discriminator.
type NodeType uint8

const (
	NodeElement NodeType = iota // <div>, <li>, ...
	NodeText                    // Non-whitespace text run
	NodeComment                 // <!-- ... -->
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case NodeElement:
		return "element"
	case NodeText:
		return "text"
	case NodeComment:
		return "comment"
	default:
		return "unknown"
	}
}

// FragmentTag is the tag of the synthetic root that holds several top-level
// siblings. It can never collide with a parsed tag name.
const FragmentTag = "#fragment"

// KeyAttr and DiffKeyAttr are the attributes a key is read from, in order.
const (
	KeyAttr     = "key"
	DiffKeyAttr = "diff:key"
)

// VNode is one node of a rendered snapshot.
//
// A tree is built fresh for every render and never mutated once diffed.
type VNode struct {
	Type     NodeType   `msgpack:"y"`
	Tag      string     `msgpack:"g,omitempty"`
	Text     string     `msgpack:"x,omitempty"`
	Attrs    Attributes `msgpack:"a,omitempty"`
	Children []*VNode   `msgpack:"c,omitempty"`
	Key      string     `msgpack:"k,omitempty"`
	Path     Path       `msgpack:"-"`
}

// Element creates an element node. The key is taken from the attributes.
func Element(tag string, attrs Attributes, children ...*VNode) *VNode {
	n := &VNode{
		Type:     NodeElement,
		Tag:      tag,
		Attrs:    attrs,
		Children: children,
	}
	n.Key = keyOf(attrs)
	return n
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Type: NodeText, Text: s}
}

// Comment creates a comment node.
func Comment(s string) *VNode {
	return &VNode{Type: NodeComment, Text: s}
}

// Fragment creates a synthetic root holding several top-level nodes.
func Fragment(children ...*VNode) *VNode {
	return &VNode{Type: NodeElement, Tag: FragmentTag, Children: children}
}

// IsFragment reports whether n is a synthetic root.
func (n *VNode) IsFragment() bool {
	return n != nil && n.Type == NodeElement && n.Tag == FragmentTag
}

// Keyed reports whether n takes part in keyed reconciliation.
func (n *VNode) Keyed() bool {
	return n != nil && n.Key != ""
}

// Equal reports structural equality: type, tag, text, attributes in order,
// key and children. Paths are ignored.
func (n *VNode) Equal(o *VNode) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Type != o.Type || n.Tag != o.Tag || n.Text != o.Text || n.Key != o.Key {
		return false
	}
	if !n.Attrs.Equal(o.Attrs) || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *VNode) Clone() *VNode {
	if n == nil {
		return nil
	}
	c := &VNode{
		Type:  n.Type,
		Tag:   n.Tag,
		Text:  n.Text,
		Attrs: n.Attrs.Clone(),
		Key:   n.Key,
		Path:  n.Path.Clone(),
	}
	if len(n.Children) > 0 {
		c.Children = make([]*VNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// AssignPaths recomputes Path for every node below root, root itself
// having the empty path.
func AssignPaths(root *VNode) {
	assignPaths(root, Path{})
}

func assignPaths(n *VNode, p Path) {
	if n == nil {
		return
	}
	n.Path = p
	for i, child := range n.Children {
		assignPaths(child, p.Child(i))
	}
}

// Count returns the number of nodes in the subtree.
func (n *VNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}

// IsWhitespace reports whether s consists only of HTML whitespace.
// Such text is never part of a tree and never counted when addressing.
func IsWhitespace(s string) bool {
	return strings.Trim(s, " \t\n\r\f") == ""
}

func keyOf(attrs Attributes) string {
	if v, ok := attrs.Get(KeyAttr); ok && v != "" {
		return v
	}
	if v, ok := attrs.Get(DiffKeyAttr); ok && v != "" {
		return v
	}
	return ""
}
