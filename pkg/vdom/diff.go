package vdom

// Diff compares two trees and returns the patches that turn prev into next.
//
// Patches are emitted depth-first, attributes before children, and must be
// applied in order: create and replace indices assume every earlier patch
// has already been applied. Diff never emits PatchReorder.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, Path{}, &patches)
	return patches
}

// diff recursively compares nodes at path and appends patches.
func diff(prev, next *VNode, path Path, patches *[]Patch) {
	switch {
	case prev == nil && next == nil:
		return

	case prev == nil:
		*patches = append(*patches, NewCreatePatch(path, next))
		return

	case next == nil:
		*patches = append(*patches, NewRemovePatch(path))
		return

	case prev.Type != next.Type,
		prev.Type == NodeElement && prev.Tag != next.Tag:
		*patches = append(*patches, NewReplacePatch(path, next))
		return
	}

	switch prev.Type {
	case NodeText, NodeComment:
		if prev.Text != next.Text {
			*patches = append(*patches, NewUpdateTextPatch(path, next.Text))
		}
	case NodeElement:
		diffAttrs(prev, next, path, patches)
		diffChildren(prev.Children, next.Children, path, patches)
	}
}

// diffAttrs emits one PatchUpdateAttrs when anything was added, changed or
// removed. Set follows next's attribute order, Remove follows prev's.
func diffAttrs(prev, next *VNode, path Path, patches *[]Patch) {
	var set Attributes
	for _, attr := range next.Attrs {
		if old, ok := prev.Attrs.Get(attr.Name); !ok || old != attr.Value {
			set = append(set, attr)
		}
	}

	var remove []string
	for _, attr := range prev.Attrs {
		if !next.Attrs.Has(attr.Name) {
			remove = append(remove, attr.Name)
		}
	}

	if len(set) > 0 || len(remove) > 0 {
		*patches = append(*patches, NewUpdateAttrsPatch(path, set, remove))
	}
}

// diffChildren picks keyed reconciliation when both sides carry at least one
// keyed child, positional otherwise.
func diffChildren(prev, next []*VNode, parent Path, patches *[]Patch) {
	if hasKeys(prev) && hasKeys(next) {
		diffKeyedChildren(prev, next, parent, patches)
		return
	}
	diffPositionalChildren(prev, next, parent, patches)
}

// diffPositionalChildren matches children by index over max(len(prev),
// len(next)). Surplus old children are removed from the highest index down
// so each removal still addresses an untouched sibling.
func diffPositionalChildren(prev, next []*VNode, parent Path, patches *[]Patch) {
	common := min(len(prev), len(next))

	for i := 0; i < common; i++ {
		diff(prev[i], next[i], parent.Child(i), patches)
	}
	for i := common; i < len(next); i++ {
		diff(nil, next[i], parent.Child(i), patches)
	}
	for i := len(prev) - 1; i >= common; i-- {
		diff(prev[i], nil, parent.Child(i), patches)
	}
}

// diffKeyedChildren reconciles children by key.
//
//  1. Old keyed children whose key is gone are removed, highest index first.
//  2. Each new child at index i is compared with the child that sits at i in
//     the partially patched list. Same key: recurse. A key that existed
//     before but sits elsewhere is a positional collision and the new node
//     replaces whatever is at i; no move is detected. A key that did not
//     exist before is created at i.
//  3. Leftover old children past the end of the new list are removed.
//
// An index that received a removal in step 1 is never recursed into: it is
// replaced instead, so no patch ever addresses a descendant of a removed or
// replaced path.
func diffKeyedChildren(prev, next []*VNode, parent Path, patches *[]Patch) {
	nextKeys := make(map[string]struct{}, len(next))
	for _, child := range next {
		if child.Keyed() {
			nextKeys[child.Key] = struct{}{}
		}
	}
	prevKeys := make(map[string]struct{}, len(prev))
	for _, child := range prev {
		if child.Keyed() {
			prevKeys[child.Key] = struct{}{}
		}
	}

	removed := make(map[int]struct{})
	live := make([]*VNode, 0, len(prev))
	for _, child := range prev {
		live = append(live, child)
	}
	for i := len(prev) - 1; i >= 0; i-- {
		child := prev[i]
		if !child.Keyed() {
			continue
		}
		if _, ok := nextKeys[child.Key]; ok {
			continue
		}
		diff(child, nil, parent.Child(i), patches)
		live = append(live[:i], live[i+1:]...)
		removed[i] = struct{}{}
	}

	for i, child := range next {
		var current *VNode
		if i < len(live) {
			current = live[i]
		}
		_, touched := removed[i]
		path := parent.Child(i)

		_, existed := prevKeys[child.Key]
		switch {
		case child.Keyed() && existed:
			switch {
			case current == nil:
				*patches = append(*patches, NewCreatePatch(path, child))
				live = append(live, child)
			case current.Key == child.Key && !touched:
				diff(current, child, path, patches)
				live[i] = child
			default:
				*patches = append(*patches, NewReplacePatch(path, child))
				live[i] = child
			}

		case child.Keyed():
			diff(nil, child, path, patches)
			live = insertAt(live, i, child)

		default:
			// Unkeyed child inside a keyed list: reuse an unkeyed node at the
			// same position, otherwise create.
			if current != nil && !current.Keyed() && !touched {
				diff(current, child, path, patches)
				live[i] = child
			} else {
				diff(nil, child, path, patches)
				live = insertAt(live, i, child)
			}
		}
	}

	for i := len(live) - 1; i >= len(next); i-- {
		diff(live[i], nil, parent.Child(i), patches)
	}
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if child.Keyed() {
			return true
		}
	}
	return false
}

func insertAt(list []*VNode, i int, n *VNode) []*VNode {
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = n
	return list
}
