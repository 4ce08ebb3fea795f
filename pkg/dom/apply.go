package dom

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/vdom"
)

// Apply applies patches in order. A patch that cannot be applied is logged
// and skipped; the rest still run. It returns the number applied.
func (d *Document) Apply(patches []vdom.Patch) int {
	applied := 0
	for _, p := range patches {
		if err := d.ApplyPatch(p); err != nil {
			d.logger.Warn("skipping patch",
				"patch", p.String(),
				"error", err)
			continue
		}
		applied++
	}
	return applied
}

// ApplyPatch applies a single patch. For create the path's last segment is
// an insertion index among the parent's meaningful children; every other
// patch addresses its target directly.
func (d *Document) ApplyPatch(p vdom.Patch) error {
	switch p.Type {
	case vdom.PatchCreate:
		return d.create(p)
	case vdom.PatchRemove:
		return d.remove(p)
	case vdom.PatchReplace:
		return d.replace(p)
	case vdom.PatchUpdateText:
		return d.updateText(p)
	case vdom.PatchUpdateAttrs:
		return d.updateAttrs(p)
	case vdom.PatchReorder:
		return d.reorder(p)
	default:
		return fmt.Errorf("%w: unknown type %d", ErrMalformedPatch, p.Type)
	}
}

func (d *Document) create(p vdom.Patch) error {
	if p.Node == nil {
		return fmt.Errorf("%w: create without node", ErrMalformedPatch)
	}
	if len(p.Path) == 0 {
		d.setRoot(p.Node)
		return nil
	}

	parent := d.NodeByPath(p.Path.Parent())
	if parent == nil || parent.Type != html.ElementNode {
		return fmt.Errorf("%w: parent of %s", ErrPathNotFound, p.Path)
	}
	kids := vdom.MeaningfulChildren(parent)
	i := p.Path.Last()
	if i < 0 || i > len(kids) {
		return fmt.Errorf("%w: index %d of %d children at %s", ErrPathNotFound, i, len(kids), p.Path)
	}
	for _, n := range materialize(p.Node) {
		if i == len(kids) {
			parent.AppendChild(n)
		} else {
			parent.InsertBefore(n, kids[i])
		}
	}
	return nil
}

func (d *Document) remove(p vdom.Patch) error {
	if len(p.Path) == 0 {
		d.setRoot(vdom.Fragment())
		return nil
	}
	n := d.NodeByPath(p.Path)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, p.Path)
	}
	d.forget(n)
	n.Parent.RemoveChild(n)
	return nil
}

func (d *Document) replace(p vdom.Patch) error {
	if p.Node == nil {
		return fmt.Errorf("%w: replace without node", ErrMalformedPatch)
	}
	if len(p.Path) == 0 {
		d.setRoot(p.Node)
		return nil
	}
	old := d.NodeByPath(p.Path)
	if old == nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, p.Path)
	}
	parent := old.Parent
	for _, n := range materialize(p.Node) {
		parent.InsertBefore(n, old)
	}
	d.forget(old)
	parent.RemoveChild(old)
	return nil
}

func (d *Document) updateText(p vdom.Patch) error {
	n := d.NodeByPath(p.Path)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, p.Path)
	}
	if n.Type != html.TextNode && n.Type != html.CommentNode {
		return fmt.Errorf("%w: update_text on <%s> at %s", ErrWrongTarget, n.Data, p.Path)
	}
	n.Data = p.Text
	return nil
}

func (d *Document) updateAttrs(p vdom.Patch) error {
	n := d.NodeByPath(p.Path)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, p.Path)
	}
	if n.Type != html.ElementNode {
		return fmt.Errorf("%w: update_attrs on a %s node at %s", ErrWrongTarget, nodeKind(n), p.Path)
	}
	for _, a := range p.Set {
		setAttr(n, a.Name, a.Value)
		// The attribute alone does not reach an already rendered control.
		if a.Name == "value" && isFormControl(n) {
			d.values[n] = a.Value
		}
	}
	for _, name := range p.Remove {
		removeAttr(n, name)
	}
	return nil
}

func (d *Document) reorder(p vdom.Patch) error {
	n := d.NodeByPath(p.Path)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrPathNotFound, p.Path)
	}
	kids := vdom.MeaningfulChildren(n)
	if !isPermutation(p.Order, len(kids)) {
		return fmt.Errorf("%w: order %v for %d children", ErrMalformedPatch, p.Order, len(kids))
	}
	for _, k := range kids {
		n.RemoveChild(k)
	}
	for _, i := range p.Order {
		n.AppendChild(kids[i])
	}
	return nil
}

// materialize turns a payload into the nodes to insert. A synthetic
// fragment contributes its children.
func materialize(v *vdom.VNode) []*html.Node {
	if v.IsFragment() {
		out := make([]*html.Node, 0, len(v.Children))
		for _, c := range v.Children {
			out = append(out, ToDOM(c))
		}
		return out
	}
	return []*html.Node{ToDOM(v)}
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

func nodeKind(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "text"
	case html.CommentNode:
		return "comment"
	default:
		return "non-element"
	}
}

// ApplyEnvelope applies one render cycle. Envelopes whose version is not
// newer than the last one applied are dropped and ApplyEnvelope reports
// false. Otherwise the patches are applied, the state is stored and bound
// controls are synced from it.
func (d *Document) ApplyEnvelope(env *protocol.Envelope) bool {
	if env == nil {
		return false
	}
	if env.Version <= d.version {
		d.logger.Debug("dropping stale envelope",
			"id", env.ID,
			"version", env.Version,
			"applied", d.version)
		return false
	}
	d.Apply(env.Patches)
	d.version = env.Version
	d.state = env.State
	d.SyncModels(env.State)
	return true
}

// ApplyResponse decodes a server response in the document's wire mode and
// applies it. A server error comes back as *protocol.ErrorMessage.
func (d *Document) ApplyResponse(data []byte) (bool, error) {
	env, em, err := d.decoder.DecodeResponse(data)
	if err != nil {
		return false, err
	}
	if em != nil {
		return false, em
	}
	return d.ApplyEnvelope(env), nil
}
