package dom

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// SyncModels sets the live value of every bound control from state.
// Fields may be dotted paths into nested maps. Controls whose field is
// missing from state are left alone, and so is the focused control, so a
// response never overwrites what the user is typing.
func (d *Document) SyncModels(state map[string]any) {
	if state == nil {
		return
	}
	walk(d.container, func(n *html.Node) {
		field, ok := Attr(n, d.modelAttr)
		if !ok || n == d.focus {
			return
		}
		v, ok := lookup(state, field)
		if !ok {
			return
		}
		d.syncControl(n, v)
	})
}

func (d *Document) syncControl(n *html.Node, v any) {
	if n.Data == "input" {
		typ, _ := Attr(n, "type")
		switch strings.ToLower(typ) {
		case "checkbox":
			if list, ok := asList(v); ok {
				own := checkboxValue(n)
				d.checked[n] = false
				for _, item := range list {
					if stringify(item) == own {
						d.checked[n] = true
						break
					}
				}
				return
			}
			d.checked[n] = truthy(v)
			return
		case "radio":
			d.checked[n] = stringify(v) == checkboxValue(n)
			return
		}
	}
	d.values[n] = stringify(v)
}

// Value returns the live value of a control: the value last synced or typed,
// or else its markup default.
func (d *Document) Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	if v, ok := d.values[n]; ok {
		return v
	}
	switch n.Data {
	case "textarea":
		return textContent(n)
	case "select":
		var first *html.Node
		var selected *html.Node
		walk(n, func(o *html.Node) {
			if o.Data != "option" {
				return
			}
			if first == nil {
				first = o
			}
			if _, ok := Attr(o, "selected"); ok && selected == nil {
				selected = o
			}
		})
		if selected == nil {
			selected = first
		}
		return optionValue(selected)
	}
	v, _ := Attr(n, "value")
	return v
}

// Checked returns the live checked state of a checkbox or radio.
func (d *Document) Checked(n *html.Node) bool {
	if n == nil {
		return false
	}
	if c, ok := d.checked[n]; ok {
		return c
	}
	_, ok := Attr(n, "checked")
	return ok
}

// SetValue sets a control's live value as user input would.
func (d *Document) SetValue(n *html.Node, v string) {
	if n != nil {
		d.values[n] = v
	}
}

// SetChecked sets a control's live checked state as a click would.
func (d *Document) SetChecked(n *html.Node, c bool) {
	if n != nil {
		d.checked[n] = c
	}
}

// Focus marks n as the focused element.
func (d *Document) Focus(n *html.Node) { d.focus = n }

// Blur clears the focus.
func (d *Document) Blur() { d.focus = nil }

// FindModel returns the first control bound to field, or nil.
func (d *Document) FindModel(field string) *html.Node {
	var found *html.Node
	walk(d.container, func(n *html.Node) {
		if found != nil {
			return
		}
		if v, ok := Attr(n, d.modelAttr); ok && v == field {
			found = n
		}
	})
	return found
}

// FindModels returns every control bound to field, in document order.
func (d *Document) FindModels(field string) []*html.Node {
	var out []*html.Node
	walk(d.container, func(n *html.Node) {
		if v, ok := Attr(n, d.modelAttr); ok && v == field {
			out = append(out, n)
		}
	})
	return out
}

// walk visits the elements below n in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
			walk(c, fn)
		}
	}
}

func isFormControl(n *html.Node) bool {
	switch n.Data {
	case "input", "select", "textarea", "option", "button", "output":
		return true
	}
	return false
}

// lookup resolves a dotted field path in nested maps.
func lookup(state map[string]any, field string) (any, bool) {
	cur := any(state)
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func checkboxValue(n *html.Node) string {
	if v, ok := Attr(n, "value"); ok {
		return v
	}
	return "on"
}

func optionValue(o *html.Node) string {
	if o == nil {
		return ""
	}
	if v, ok := Attr(o, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(o))
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// stringify renders a state value the way it appears in a control.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

// truthy follows JavaScript truthiness for the values a state map holds.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
