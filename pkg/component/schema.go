package component

import (
	"fmt"
	"sort"
	"strings"
)

// Policy is the capability of one field.
type Policy uint8

const (
	Tracked  Policy = iota // Sent to the client and writable by it
	Hidden                 // Never leaves the server
	Locked                 // Sent to the client, never writable by it
	Computed               // Derived on the server, sent but never written or restored
)

// String returns the string representation of the Policy.
func (p Policy) String() string {
	switch p {
	case Tracked:
		return "tracked"
	case Hidden:
		return "hidden"
	case Locked:
		return "locked"
	case Computed:
		return "computed"
	default:
		return "unknown"
	}
}

// Schema maps field names to policies. It is built once per component type
// and is read-only afterwards.
type Schema struct {
	fields map[string]Policy
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{fields: make(map[string]Policy)}
}

func (s *Schema) with(p Policy, names []string) *Schema {
	for _, n := range names {
		s.fields[n] = p
	}
	return s
}

// Tracked declares writable public fields.
func (s *Schema) Tracked(names ...string) *Schema { return s.with(Tracked, names) }

// Hidden declares server-only fields.
func (s *Schema) Hidden(names ...string) *Schema { return s.with(Hidden, names) }

// Locked declares public read-only fields.
func (s *Schema) Locked(names ...string) *Schema { return s.with(Locked, names) }

// Computed declares derived fields.
func (s *Schema) Computed(names ...string) *Schema { return s.with(Computed, names) }

// Policy returns the policy of a field. A dotted path resolves to its
// top-level field.
func (s *Schema) Policy(field string) (Policy, bool) {
	if s == nil {
		return 0, false
	}
	root, _, _ := strings.Cut(field, ".")
	p, ok := s.fields[root]
	return p, ok
}

// Fields returns the declared field names, sorted.
func (s *Schema) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for n := range s.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PublicState returns the declared, non-hidden entries of state.
// The input map is not modified.
func (s *Schema) PublicState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		if p, ok := s.fields[k]; ok && p != Hidden {
			out[k] = v
		}
	}
	return out
}

// Restorable returns the entries of a verified client state that may be
// hydrated back into a fresh instance: tracked and locked fields.
func (s *Schema) Restorable(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		if p, ok := s.fields[k]; ok && (p == Tracked || p == Locked) {
			out[k] = v
		}
	}
	return out
}

// CheckWrite reports whether the client may write field.
// Hidden fields are reported as unknown.
func (s *Schema) CheckWrite(field string) error {
	p, ok := s.Policy(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	switch p {
	case Tracked:
		return nil
	case Locked:
		return fmt.Errorf("%w: %q", ErrFieldLocked, field)
	case Computed:
		return fmt.Errorf("%w: %q", ErrFieldReadOnly, field)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}
