// Package snapshot stores the last rendered tree of each component.
//
// The renderer diffs every new render against the stored snapshot and
// replaces it afterwards. Three backends are provided:
//
//   - MemoryStore: process memory, the default
//   - BadgerStore: embedded BadgerDB, survives restarts
//   - S3Store: an S3 bucket shared by several processes
//
// Persistent backends encode snapshots with msgpack (see Marshal).
// Nothing expires on its own: the owner of a component scope deletes its
// snapshots when the scope ends.
package snapshot
