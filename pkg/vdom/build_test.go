package vdom

import "testing"

func TestH(t *testing.T) {
	n := H("li",
		nil,
		Key("b"),
		A("class", "x"),
		A("class", "ignored"),
		Attributes{{Name: "title", Value: "t"}},
		"B",
		[]*VNode{Comment("c"), nil},
	)

	if n.Tag != "li" || n.Key != "b" {
		t.Fatalf("tag/key = %q/%q, want li/b", n.Tag, n.Key)
	}
	if got := n.Attrs.Names(); len(got) != 3 || got[0] != "key" || got[1] != "class" || got[2] != "title" {
		t.Errorf("attr names = %v", got)
	}
	if v, _ := n.Attrs.Get("class"); v != "x" {
		t.Errorf("class = %q, want first value x", v)
	}
	if len(n.Children) != 2 || n.Children[0].Text != "B" || n.Children[1].Type != NodeComment {
		t.Errorf("children = %+v", n.Children)
	}
}

func TestHVoidElementDropsChildren(t *testing.T) {
	n := H("input", A("type", "text"), "ignored")
	if len(n.Children) != 0 {
		t.Errorf("void element kept %d children", len(n.Children))
	}
	if !IsVoidElement("br") || IsVoidElement("div") {
		t.Error("IsVoidElement mismatch")
	}
}

func TestHUnsupportedArgumentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	H("div", 42)
}

func TestTextf(t *testing.T) {
	if got := Textf("Count: %d", 1).Text; got != "Count: 1" {
		t.Errorf("Textf = %q", got)
	}
}
