package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonical returns the canonical JSON encoding of state.
//
// Map keys are sorted at every level, struct values are normalized to their
// JSON object form, and numbers keep their exact textual representation.
// Scalars are never coerced: 1 and "1" encode differently.
func Canonical(state map[string]any) ([]byte, error) {
	if state == nil {
		state = map[string]any{}
	}
	first, err := marshal(state)
	if err != nil {
		return nil, fmt.Errorf("signature: encode state: %w", err)
	}

	// Decoding into generic values turns every object into a map, which the
	// encoder writes with sorted keys.
	dec := json.NewDecoder(bytes.NewReader(first))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("signature: normalize state: %w", err)
	}
	return marshal(generic)
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
