// Package protocol implements the JSON wire format for patches and render
// envelopes.
//
// Patches flow from server to client. They are plain JSON so that any
// client can apply them, and every byte the server writes is reproducible:
// the same patch list always encodes to the same bytes.
//
// # Modes
//
// A patch is written in one of two modes. Both carry the same information;
// the mode is chosen by configuration and must be known by the reader.
//
//	full:     {"type":"update_text","path":[0,0],"data":{"text":"Count: 1"}}
//	minified: {"t":"t","p":[0,0],"d":{"x":"Count: 1"}}
//
// Type codes in minified mode:
//
//   - c: create
//   - r: remove
//   - R: replace
//   - t: update_text
//   - a: update_attrs
//   - o: reorder
//
// # Nodes
//
// Create and replace carry a node in the minimal form, identical in both
// modes:
//
//	{"tag":"li","attrs":{"key":"b"},"children":[{"text":"B"}]}
//	{"text":"B"}
//	{"comment":" note "}
//
// # Envelopes
//
// An envelope bundles the patches of one render cycle with the full public
// state, its fingerprint, its signature and a version counter:
//
//	{"s":true,"c":{"i":"…","v":3,"p":[…],"st":{…},"f":"…","sg":"…"}}
//
// Rejected requests are answered with {"s":false,"e":{"code":2,"message":"…"}}.
//
// # Limits
//
// Decoding enforces MaxVNodeDepth, MaxPatches and MaxPathLength to bound
// the work done on untrusted input. See Limits to configure them.
package protocol
