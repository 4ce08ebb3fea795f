package vdom

import "fmt"

// PatchType is the type of patch operation.
type PatchType uint8

const (
	PatchCreate      PatchType = iota + 1 // Insert a node at an index of the parent
	PatchRemove                           // Remove the addressed node
	PatchReplace                          // Replace the addressed node entirely
	PatchUpdateText                       // Set the content of a text or comment node
	PatchUpdateAttrs                      // Set and remove attributes
	PatchReorder                          // Permute the meaningful children
)

// String returns the wire name of the PatchType.
func (t PatchType) String() string {
	switch t {
	case PatchCreate:
		return "create"
	case PatchRemove:
		return "remove"
	case PatchReplace:
		return "replace"
	case PatchUpdateText:
		return "update_text"
	case PatchUpdateAttrs:
		return "update_attrs"
	case PatchReorder:
		return "reorder"
	default:
		return "unknown"
	}
}

// ParsePatchType maps a wire name back to its PatchType.
func ParsePatchType(s string) (PatchType, bool) {
	switch s {
	case "create":
		return PatchCreate, true
	case "remove":
		return PatchRemove, true
	case "replace":
		return PatchReplace, true
	case "update_text":
		return PatchUpdateText, true
	case "update_attrs":
		return PatchUpdateAttrs, true
	case "reorder":
		return PatchReorder, true
	default:
		return 0, false
	}
}

// Patch is one mutation. For PatchCreate the last path segment is an
// insertion index into the parent's meaningful children; every other type
// addresses its target node directly.
type Patch struct {
	Type   PatchType
	Path   Path
	Node   *VNode     // Create, Replace
	Text   string     // UpdateText
	Set    Attributes // UpdateAttrs
	Remove []string   // UpdateAttrs
	Order  []int      // Reorder: Order[i] is the old index of the new i-th child
}

// String returns a compact, human readable form used in logs and the CLI.
func (p Patch) String() string {
	switch p.Type {
	case PatchUpdateText:
		return fmt.Sprintf("%s %s %q", p.Type, p.Path, p.Text)
	case PatchUpdateAttrs:
		return fmt.Sprintf("%s %s set=%v remove=%v", p.Type, p.Path, p.Set.Map(), p.Remove)
	case PatchCreate, PatchReplace:
		desc := "<nil>"
		if p.Node != nil {
			desc = p.Node.Type.String()
			if p.Node.Type == NodeElement {
				desc = "<" + p.Node.Tag + ">"
			}
		}
		return fmt.Sprintf("%s %s %s", p.Type, p.Path, desc)
	case PatchReorder:
		return fmt.Sprintf("%s %s %v", p.Type, p.Path, p.Order)
	default:
		return fmt.Sprintf("%s %s", p.Type, p.Path)
	}
}

// NewCreatePatch creates a PatchCreate.
func NewCreatePatch(path Path, node *VNode) Patch {
	return Patch{Type: PatchCreate, Path: path, Node: node}
}

// NewRemovePatch creates a PatchRemove.
func NewRemovePatch(path Path) Patch {
	return Patch{Type: PatchRemove, Path: path}
}

// NewReplacePatch creates a PatchReplace.
func NewReplacePatch(path Path, node *VNode) Patch {
	return Patch{Type: PatchReplace, Path: path, Node: node}
}

// NewUpdateTextPatch creates a PatchUpdateText.
func NewUpdateTextPatch(path Path, text string) Patch {
	return Patch{Type: PatchUpdateText, Path: path, Text: text}
}

// NewUpdateAttrsPatch creates a PatchUpdateAttrs.
func NewUpdateAttrsPatch(path Path, set Attributes, remove []string) Patch {
	return Patch{Type: PatchUpdateAttrs, Path: path, Set: set, Remove: remove}
}

// NewReorderPatch creates a PatchReorder.
func NewReorderPatch(path Path, order []int) Patch {
	return Patch{Type: PatchReorder, Path: path, Order: order}
}
