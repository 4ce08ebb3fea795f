// Package vtest provides testing helpers for patchwire components.
//
// A Harness mounts a registered component and drives it through the same
// round trip a browser client makes: it sends the signed state it last
// received together with field writes and method calls, and applies the
// response to an in-memory document. Assertions then run against the
// document the client would show.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    registry := component.NewRegistry()
//	    registry.MustRegister("counter", counterSchema(), newCounter)
//
//	    h := vtest.Mount(t, registry, "counter")
//	    h.MustCall("increment")
//	    vtest.ExpectContains(t, h, "Count: 1")
//	}
//
// # Field Writes
//
// Writes go through the schema exactly as they do on the server, so a
// locked or computed field is rejected:
//
//	err := h.Set("title", "x")
//	vtest.ExpectError(t, err, protocol.ErrFieldRejected)
//
// # Lifecycle
//
// Reload mounts a fresh instance into a new document, Evict drops the
// server-side snapshot, and Replay re-applies the last response, which the
// document must ignore as stale.
package vtest
