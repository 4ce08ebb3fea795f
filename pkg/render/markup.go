package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// rawTextElements hold text that the HTML parser does not decode, so it is
// written unescaped.
var rawTextElements = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"xmp":       true,
}

// HTML renders a tree to markup. Parsing the result yields a tree equal to
// node. A synthetic fragment root renders its children only.
func HTML(node *vdom.VNode) string {
	var b strings.Builder
	_ = WriteHTML(&b, node)
	return b.String()
}

// WriteHTML streams the markup of node to w.
func WriteHTML(w io.Writer, node *vdom.VNode) error {
	bw := bufio.NewWriter(w)
	if err := writeNode(bw, node, false); err != nil {
		return err
	}
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *vdom.VNode, raw bool) error {
	if n == nil {
		return nil
	}

	switch n.Type {
	case vdom.NodeText:
		if raw {
			_, err := w.WriteString(n.Text)
			return err
		}
		_, err := w.WriteString(escapeText(n.Text))
		return err
	case vdom.NodeComment:
		w.WriteString("<!--")
		w.WriteString(n.Text)
		_, err := w.WriteString("-->")
		return err
	}

	if n.IsFragment() {
		for _, c := range n.Children {
			if err := writeNode(w, c, false); err != nil {
				return err
			}
		}
		return nil
	}

	w.WriteByte('<')
	w.WriteString(n.Tag)
	for _, a := range n.Attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		if a.Value != "" {
			w.WriteString(`="`)
			w.WriteString(escapeAttr(a.Value))
			w.WriteByte('"')
		}
	}
	if err := w.WriteByte('>'); err != nil {
		return err
	}
	if vdom.IsVoidElement(n.Tag) {
		return nil
	}

	childRaw := rawTextElements[n.Tag]
	for _, c := range n.Children {
		if err := writeNode(w, c, childRaw); err != nil {
			return err
		}
	}

	w.WriteString("</")
	w.WriteString(n.Tag)
	_, err := w.WriteString(">")
	return err
}
