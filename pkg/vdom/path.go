package vdom

import (
	"strconv"
	"strings"
)

// Path addresses a node by the index of each ancestor among its parent's
// meaningful children. Example: [0, 2] is root -> child[0] -> child[2].
// The empty path is the root.
type Path []int

// Child returns a new path one level deeper.
func (p Path) Child(i int) Path {
	c := make(Path, len(p)+1)
	copy(c, p)
	c[len(p)] = i
	return c
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Last returns the last segment, or -1 for the root.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Equal compares two paths segment by segment.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is p itself or an ancestor of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// IsDescendantOf reports whether p lies strictly below ancestor.
func (p Path) IsDescendantOf(ancestor Path) bool {
	return len(p) > len(ancestor) && p.HasPrefix(ancestor)
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// String renders the path as "/0/2". The root is "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(seg))
	}
	return b.String()
}
