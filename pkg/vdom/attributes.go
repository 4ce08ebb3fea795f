package vdom

// Attr is a single attribute.
type Attr struct {
	Name  string `msgpack:"n"`
	Value string `msgpack:"v"`
}

// Attributes is an ordered string map. Order is the source order of the
// markup and is preserved on the wire.
type Attributes []Attr

// Get returns the value of name.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Has reports whether name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Set replaces the value of name in place, or appends it.
func (a Attributes) Set(name, value string) Attributes {
	for i := range a {
		if a[i].Name == name {
			a[i].Value = value
			return a
		}
	}
	return append(a, Attr{Name: name, Value: value})
}

// Delete removes name, keeping the order of the others.
func (a Attributes) Delete(name string) Attributes {
	for i := range a {
		if a[i].Name == name {
			return append(a[:i:i], a[i+1:]...)
		}
	}
	return a
}

// Names returns the attribute names in order.
func (a Attributes) Names() []string {
	names := make([]string, len(a))
	for i, attr := range a {
		names[i] = attr.Name
	}
	return names
}

// Map returns the attributes as an unordered map.
func (a Attributes) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, attr := range a {
		m[attr.Name] = attr.Value
	}
	return m
}

// Equal compares names, values and order.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	c := make(Attributes, len(a))
	copy(c, a)
	return c
}
