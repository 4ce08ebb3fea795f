package render

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		node *vdom.VNode
		want string
	}{
		{"nil", nil, ""},
		{"text_escaped", vdom.Text(`a < b & "c"`), "a &lt; b &amp; &quot;c&quot;"},
		{"comment", vdom.Comment(" note "), "<!-- note -->"},
		{"void", vdom.H("input", vdom.A("type", "checkbox"), vdom.A("checked", "")), `<input type="checkbox" checked>`},
		{"attr_escaped", vdom.H("p", vdom.A("title", "x\"y\nz")), `<p title="x&quot;y&#10;z"></p>`},
		{"script_raw", vdom.H("script", "if (a < b) {}"), "<script>if (a < b) {}</script>"},
		{"fragment", vdom.Fragment(vdom.H("b", "1"), vdom.Text("x")), "<b>1</b>x"},
		{"nested", vdom.H("ul", vdom.H("li", vdom.Key("a"), "A")), `<ul><li key="a">A</li></ul>`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HTML(tc.node)
			if got != tc.want {
				t.Errorf("HTML() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHTMLRoundTrip(t *testing.T) {
	inputs := []string{
		`<div class="a" id="x"><span>Count: 0</span><!-- c --><br></div>`,
		`<ul><li key="a">A &amp; B</li><li diff:key="b">it&#39;s</li></ul>`,
		`<p>one</p><p>two</p>`,
		`<form><input name="q" value="a&quot;b"><select><option selected>1</option></select><textarea>x</textarea></form>`,
		`<style>p > a { color: red }</style>`,
	}
	for _, in := range inputs {
		tree := vdom.Parse(in)
		again := vdom.Parse(HTML(tree))
		if !again.Equal(tree) {
			t.Errorf("round trip of %q changed the tree: %q", in, HTML(tree))
		}
		if d := vdom.Diff(tree, again); len(d) != 0 {
			t.Errorf("diff after round trip of %q = %v", in, d)
		}
	}
}

func TestTempl(t *testing.T) {
	view := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<div><span>Count: "+templ.EscapeString("<1>")+"</span></div>")
		return err
	})
	got, err := Templ(context.Background(), view)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<div><span>Count: &lt;1&gt;</span></div>" {
		t.Errorf("Templ() = %q", got)
	}

	if got, err := Templ(context.Background(), nil); got != "" || err != nil {
		t.Errorf("Templ(nil) = %q, %v", got, err)
	}

	boom := errors.New("boom")
	failing := templ.ComponentFunc(func(context.Context, io.Writer) error { return boom })
	if _, err := Templ(context.Background(), failing); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestNodeComponent(t *testing.T) {
	tree := vdom.H("em", vdom.A("class", "x"), "hi")
	got, err := Templ(context.Background(), Node(tree))
	if err != nil {
		t.Fatal(err)
	}
	if got != `<em class="x">hi</em>` {
		t.Errorf("Node() rendered %q", got)
	}
}
