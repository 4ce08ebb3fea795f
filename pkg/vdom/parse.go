package vdom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a tree from rendered markup.
//
// Malformed markup yields a best-effort tree; Parse never fails. Whitespace-only
// text is dropped. When the markup has exactly one meaningful top-level node,
// that node is the root; otherwise the nodes are held by a synthetic Fragment
// root. Paths are assigned before returning.
func Parse(markup string) *VNode {
	root := Fragment()
	for _, n := range ParseDOM(markup) {
		if v := FromDOM(n); v != nil {
			root.Children = append(root.Children, v)
		}
	}
	if len(root.Children) == 1 {
		root = root.Children[0]
	}
	AssignPaths(root)
	return root
}

// ParseDOM parses markup as a body fragment and returns the top-level nodes,
// including non-meaningful ones. The live DOM on the client side is built
// with the same call so both sides see the same structure.
func ParseDOM(markup string) []*html.Node {
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext())
	if err != nil {
		// Only reader errors surface here and a strings.Reader has none.
		return nil
	}
	return nodes
}

func bodyContext() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
}

// FromDOM converts a parsed DOM subtree. It returns nil for nodes that are
// not meaningful.
func FromDOM(n *html.Node) *VNode {
	if !IsMeaningful(n) {
		return nil
	}
	switch n.Type {
	case html.TextNode:
		return Text(n.Data)
	case html.CommentNode:
		return Comment(n.Data)
	}

	var attrs Attributes
	if len(n.Attr) > 0 {
		attrs = make(Attributes, 0, len(n.Attr))
		for _, a := range n.Attr {
			// First occurrence wins, as in a browser.
			if name := AttrName(a); !attrs.Has(name) {
				attrs = append(attrs, Attr{Name: name, Value: a.Val})
			}
		}
	}
	el := Element(n.Data, attrs)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := FromDOM(c); child != nil {
			el.Children = append(el.Children, child)
		}
	}
	return el
}

// AttrName returns the attribute name as it appears in a tree, folding a
// foreign-content namespace into the name ("xlink:href").
func AttrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

// IsMeaningful reports whether a DOM node takes part in path addressing:
// elements, comments and text that is not whitespace-only.
func IsMeaningful(n *html.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case html.ElementNode, html.CommentNode:
		return true
	case html.TextNode:
		return !IsWhitespace(n.Data)
	default:
		return false
	}
}

// MeaningfulChildren lists the children of n that are counted by a Path
// segment.
func MeaningfulChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsMeaningful(c) {
			out = append(out, c)
		}
	}
	return out
}
