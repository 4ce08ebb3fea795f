// Package component defines what the renderer needs from a component and
// the registry that creates them.
//
// A component renders itself to markup and reports its state. Everything
// else is optional and discovered by type assertion: hydration from client
// state, field writes, method calls, events, validation errors and URL-bound
// properties.
//
// Field policy is declared, not inferred:
//
//	schema := component.NewSchema().
//	    Tracked("count").
//	    Locked("owner").
//	    Computed("double").
//	    Hidden("secretNote")
//
// The schema decides what reaches the client (PublicState), what a fresh
// instance may be restored from (Restorable) and what the client may write
// (CheckWrite).
package component
