package dom

import (
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/vdom"
)

// DefaultModelAttribute binds a form control to a state field.
const DefaultModelAttribute = "wire:model"

var (
	// ErrPathNotFound is returned when a patch path does not resolve.
	ErrPathNotFound = errors.New("dom: path not found")

	// ErrWrongTarget is returned when a patch addresses a node of the wrong
	// variant, such as update_text on an element.
	ErrWrongTarget = errors.New("dom: patch does not fit target node")

	// ErrMalformedPatch is returned for patches missing their payload.
	ErrMalformedPatch = errors.New("dom: malformed patch")
)

// Document is a live DOM subtree mirroring the last tree the server sent for
// one component. It tracks the properties a browser keeps apart from
// attributes: the current value and checked state of form controls and the
// focused element.
//
// A Document is not safe for concurrent use; patches are applied from one
// goroutine in the order received.
type Document struct {
	container *html.Node
	// fragment is set when the container itself is the root, i.e. when the
	// last full render had other than one meaningful top-level node.
	fragment bool

	values  map[*html.Node]string
	checked map[*html.Node]bool
	focus   *html.Node

	version   uint64
	state     map[string]any
	modelAttr string
	decoder   *protocol.Decoder
	logger    *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithModelAttribute sets the attribute that binds controls to state fields.
func WithModelAttribute(name string) Option {
	return func(d *Document) {
		if name != "" {
			d.modelAttr = name
		}
	}
}

// WithMode sets the wire mode of responses passed to ApplyResponse.
func WithMode(mode protocol.Mode) Option {
	return func(d *Document) {
		d.decoder = protocol.NewDecoder(mode)
	}
}

// WithVersion sets the version of the markup the document starts from.
func WithVersion(v uint64) Option {
	return func(d *Document) {
		d.version = v
	}
}

// WithState sets the state that came with the initial markup.
func WithState(state map[string]any) Option {
	return func(d *Document) {
		d.state = state
	}
}

// WithLogger sets the logger used for skipped patches.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New builds a document from the markup of a first render.
func New(markup string, opts ...Option) *Document {
	d := &Document{
		container: &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body},
		values:    make(map[*html.Node]string),
		checked:   make(map[*html.Node]bool),
		modelAttr: DefaultModelAttribute,
		decoder:   protocol.NewDecoder(protocol.ModeFull),
		logger:    slog.Default().With("component", "dom"),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, n := range vdom.ParseDOM(markup) {
		d.container.AppendChild(n)
	}
	d.fragment = len(vdom.MeaningfulChildren(d.container)) != 1
	return d
}

// Root returns the node that the empty path addresses.
func (d *Document) Root() *html.Node {
	if d.fragment {
		return d.container
	}
	kids := vdom.MeaningfulChildren(d.container)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

// NodeByPath resolves path from the root, counting only meaningful children
// at every level. It returns nil when the path does not resolve.
func (d *Document) NodeByPath(path vdom.Path) *html.Node {
	n := d.Root()
	for _, i := range path {
		if n == nil || i < 0 {
			return nil
		}
		kids := vdom.MeaningfulChildren(n)
		if i >= len(kids) {
			return nil
		}
		n = kids[i]
	}
	return n
}

// Version returns the version of the last envelope applied.
func (d *Document) Version() uint64 {
	return d.version
}

// State returns the state of the last envelope applied.
func (d *Document) State() map[string]any {
	return d.state
}

// Tree converts the live document back into a tree, the way the server
// would parse it.
func (d *Document) Tree() *vdom.VNode {
	root := d.Root()
	if root == nil {
		return vdom.Fragment()
	}
	var t *vdom.VNode
	if d.fragment {
		t = vdom.Fragment()
		for _, c := range vdom.MeaningfulChildren(root) {
			t.Children = append(t.Children, vdom.FromDOM(c))
		}
	} else {
		t = vdom.FromDOM(root)
	}
	vdom.AssignPaths(t)
	return t
}

// HTML renders the live document.
func (d *Document) HTML() string {
	var b strings.Builder
	for c := d.container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			d.logger.Warn("render failed", "error", err)
		}
	}
	return b.String()
}

// setRoot replaces the whole document with n.
func (d *Document) setRoot(n *vdom.VNode) {
	for c := d.container.FirstChild; c != nil; {
		next := c.NextSibling
		d.forget(c)
		d.container.RemoveChild(c)
		c = next
	}
	if n.IsFragment() {
		for _, c := range n.Children {
			d.container.AppendChild(ToDOM(c))
		}
		d.fragment = true
		return
	}
	d.container.AppendChild(ToDOM(n))
	d.fragment = false
}

// forget drops the live properties of a subtree leaving the document.
func (d *Document) forget(n *html.Node) {
	delete(d.values, n)
	delete(d.checked, n)
	if d.focus == n {
		d.focus = nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// ToDOM materializes a tree node as a detached DOM subtree. A synthetic
// fragment root yields an element named after it; use its children instead.
func ToDOM(v *vdom.VNode) *html.Node {
	switch v.Type {
	case vdom.NodeText:
		return &html.Node{Type: html.TextNode, Data: v.Text}
	case vdom.NodeComment:
		return &html.Node{Type: html.CommentNode, Data: v.Text}
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     v.Tag,
		DataAtom: atom.Lookup([]byte(v.Tag)),
	}
	if len(v.Attrs) > 0 {
		n.Attr = make([]html.Attribute, 0, len(v.Attrs))
		for _, a := range v.Attrs {
			n.Attr = append(n.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	}
	for _, c := range v.Children {
		n.AppendChild(ToDOM(c))
	}
	return n
}

func attrIndex(n *html.Node, name string) int {
	for i, a := range n.Attr {
		if vdom.AttrName(a) == name {
			return i
		}
	}
	return -1
}

// Attr returns the value of an attribute of n.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	if i := attrIndex(n, name); i >= 0 {
		return n.Attr[i].Val, true
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	if i := attrIndex(n, name); i >= 0 {
		n.Attr[i].Val = value
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	if i := attrIndex(n, name); i >= 0 {
		n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
	}
}
