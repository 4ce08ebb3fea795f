// Package vdom provides the lightweight tree that rendered markup is reduced
// to, and the diff that turns one snapshot of it into the next.
//
// # Core Types
//
// VNode is an element, text or comment node. Whitespace-only text is never
// part of a tree. Attributes keep their source order. Key is read from a
// "key" or "diff:key" attribute and drives keyed reconciliation.
//
// Path addresses a node by the index of each ancestor among its parent's
// meaningful children (elements, comments, non-whitespace text). The same
// rule is used by the client when it walks the live DOM, so both sides
// resolve a path to the same node.
//
// # Parsing
//
// Parse turns an HTML string into a tree with golang.org/x/net/html. It never
// fails on malformed input. Several top-level nodes are held by a synthetic
// Fragment root; a single top-level node is the root itself.
//
// # Diffing
//
//	patches := vdom.OptimizePatches(vdom.Diff(prev, next))
//
// Diff emits create, remove, replace, update_text and update_attrs patches
// depth-first, attributes before children. Keyed children are matched by
// key but never moved: a key found at another position is replaced.
// OptimizePatches drops patches that fall under a removed or replaced node.
package vdom
