package vdom

import "fmt"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// H builds an element from a mixed argument list.
// Arguments can be: nil, Attr, Attributes, *VNode, []*VNode, string.
// A string is shorthand for a text child. Repeated attributes keep the
// first value, the same rule the parser applies.
func H(tag string, args ...any) *VNode {
	var attrs Attributes
	var children []*VNode

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			if v.Name != "" && !attrs.Has(v.Name) {
				attrs = append(attrs, v)
			}

		case Attributes:
			for _, a := range v {
				if a.Name != "" && !attrs.Has(a.Name) {
					attrs = append(attrs, a)
				}
			}

		case *VNode:
			if v != nil {
				children = append(children, v)
			}

		case []*VNode:
			for _, child := range v {
				if child != nil {
					children = append(children, child)
				}
			}

		case string:
			children = append(children, Text(v))

		default:
			panic(fmt.Sprintf("vdom.H: unsupported argument %T", arg))
		}
	}

	if voidElements[tag] {
		children = nil
	}
	return Element(tag, attrs, children...)
}

// A returns a single attribute.
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// Key returns the key attribute.
func Key(key any) Attr {
	return Attr{Name: KeyAttr, Value: fmt.Sprint(key)}
}

// Textf creates a text node with formatted content.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}
