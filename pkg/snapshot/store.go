package snapshot

import (
	"context"
	"errors"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Snapshot is the last tree rendered for a component id.
type Snapshot struct {
	Tree    *vdom.VNode `msgpack:"t"`
	Version uint64      `msgpack:"v"`
}

// Store defines the interface for snapshot persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the snapshot stored for id.
	// Returns (nil, nil) if there is none.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// Save stores snap for id, overwriting any previous snapshot.
	Save(ctx context.Context, id string, snap *Snapshot) error

	// Delete removes the snapshot for id.
	// Should not return an error if there is none.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("snapshot: store is closed")
