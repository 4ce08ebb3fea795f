package snapshot

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Marshal encodes a snapshot for persistent backends.
func Marshal(snap *Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot written by Marshal. Paths are reassigned.
func Unmarshal(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	vdom.AssignPaths(snap.Tree)
	return &snap, nil
}
