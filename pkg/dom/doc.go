// Package dom applies patch streams to a live DOM.
//
// It is the client half of the protocol, written against
// golang.org/x/net/html so the same addressing rules used by the server
// parser can be exercised in Go: a path segment counts only meaningful
// children (elements, comments and text that is not whitespace-only).
//
//	doc := dom.New(initial.HTML, dom.WithVersion(initial.Version))
//	...
//	applied, err := doc.ApplyResponse(body)
//
// Patches are applied strictly in order. A patch whose path does not resolve
// is logged and skipped instead of failing the whole envelope, so one bad
// patch degrades one region of the page. Envelopes carry a version; those
// not newer than the last one applied are dropped.
//
// After each envelope, controls carrying the model attribute (wire:model by
// default) are synced from the state map, except the focused one.
package dom
