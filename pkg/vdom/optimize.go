package vdom

// OptimizePatches drops every patch whose path lies strictly below the path
// of a PatchRemove or PatchReplace in the same list; such patches target a
// subtree that is discarded anyway. Order of the surviving patches is kept.
func OptimizePatches(patches []Patch) []Patch {
	var cut []Path
	for _, p := range patches {
		if p.Type == PatchRemove || p.Type == PatchReplace {
			cut = append(cut, p.Path)
		}
	}
	if len(cut) == 0 {
		return patches
	}

	out := make([]Patch, 0, len(patches))
	for _, p := range patches {
		if !superseded(p.Path, cut) {
			out = append(out, p)
		}
	}
	return out
}

func superseded(path Path, cut []Path) bool {
	for _, c := range cut {
		if path.IsDescendantOf(c) {
			return true
		}
	}
	return false
}
