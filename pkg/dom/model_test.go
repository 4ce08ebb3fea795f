package dom

import (
	"encoding/json"
	"testing"

	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/vdom"
)

const modelForm = `<form>
  <input wire:model="name" value="old">
  <input type="checkbox" wire:model="agree">
  <input type="checkbox" value="go" wire:model="langs">
  <input type="checkbox" value="rust" wire:model="langs" checked>
  <input type="radio" value="s" wire:model="size">
  <input type="radio" value="m" wire:model="size">
  <select wire:model="country"><option value="fr">France</option><option value="de">Germany</option></select>
  <textarea wire:model="profile.bio">markup</textarea>
  <input wire:model="count">
  <input wire:model="focused">
  <input wire:model="untouched" value="keep">
</form>`

func TestSyncModels(t *testing.T) {
	doc := New(modelForm)

	focused := doc.FindModel("focused")
	doc.Focus(focused)
	doc.SetValue(focused, "typing")

	doc.SyncModels(map[string]any{
		"name":    "Ada",
		"agree":   true,
		"langs":   []any{"go"},
		"size":    "m",
		"country": "de",
		"profile": map[string]any{"bio": "hello"},
		"count":   json.Number("3"),
		"focused": "from server",
	})

	values := []struct {
		field string
		want  string
	}{
		{"name", "Ada"},
		{"country", "de"},
		{"profile.bio", "hello"},
		{"count", "3"},
		{"focused", "typing"},
		{"untouched", "keep"},
	}
	for _, tc := range values {
		if got := doc.Value(doc.FindModel(tc.field)); got != tc.want {
			t.Errorf("Value(%s) = %q, want %q", tc.field, got, tc.want)
		}
	}

	if !doc.Checked(doc.FindModel("agree")) {
		t.Error("agree not checked")
	}
	langs := doc.FindModels("langs")
	if len(langs) != 2 || !doc.Checked(langs[0]) || doc.Checked(langs[1]) {
		t.Errorf("langs checked = %v/%v, want go only", doc.Checked(langs[0]), doc.Checked(langs[1]))
	}
	sizes := doc.FindModels("size")
	if doc.Checked(sizes[0]) || !doc.Checked(sizes[1]) {
		t.Error("radio m not selected")
	}

	doc.Blur()
	doc.SyncModels(map[string]any{"focused": "from server", "agree": 0})
	if got := doc.Value(focused); got != "from server" {
		t.Errorf("after blur Value = %q", got)
	}
	if doc.Checked(doc.FindModel("agree")) {
		t.Error("agree still checked for a falsy value")
	}
}

func TestMarkupDefaults(t *testing.T) {
	doc := New(modelForm)
	tests := []struct {
		field string
		want  string
	}{
		{"name", "old"},
		{"country", "fr"},
		{"profile.bio", "markup"},
	}
	for _, tc := range tests {
		if got := doc.Value(doc.FindModel(tc.field)); got != tc.want {
			t.Errorf("default Value(%s) = %q, want %q", tc.field, got, tc.want)
		}
	}
	langs := doc.FindModels("langs")
	if doc.Checked(langs[0]) || !doc.Checked(langs[1]) {
		t.Error("checked attribute not used as default")
	}
	if doc.FindModel("nope") != nil {
		t.Error("FindModel found an unbound field")
	}
}

func TestApplyEnvelopeSyncsModels(t *testing.T) {
	doc := New(`<div><input wire:model="q"><span>0</span></div>`, WithVersion(1))
	env := &protocol.Envelope{
		ID:      "c1",
		Version: 2,
		Patches: []vdom.Patch{vdom.NewUpdateTextPatch(vdom.Path{1, 0}, "1")},
		State:   map[string]any{"q": "golang"},
	}
	if !doc.ApplyEnvelope(env) {
		t.Fatal("envelope dropped")
	}
	if got := doc.Value(doc.FindModel("q")); got != "golang" {
		t.Errorf("Value(q) = %q", got)
	}
}

func TestCustomModelAttribute(t *testing.T) {
	doc := New(`<input data-bind="q">`, WithModelAttribute("data-bind"))
	doc.SyncModels(map[string]any{"q": 1.5})
	if got := doc.Value(doc.Root()); got != "1.5" {
		t.Errorf("Value = %q, want 1.5", got)
	}
}

func TestLookup(t *testing.T) {
	state := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}, "x": 2}
	if v, ok := lookup(state, "a.b.c"); !ok || v != 1 {
		t.Errorf("lookup(a.b.c) = %v, %v", v, ok)
	}
	for _, field := range []string{"a.z", "x.y", "missing"} {
		if _, ok := lookup(state, field); ok {
			t.Errorf("lookup(%s) resolved", field)
		}
	}
}

func TestStringifyAndTruthy(t *testing.T) {
	tests := []struct {
		in     any
		str    string
		truthy bool
	}{
		{nil, "", false},
		{"", "", false},
		{"x", "x", true},
		{true, "true", true},
		{false, "false", false},
		{0.0, "0", false},
		{2.5, "2.5", true},
		{json.Number("0"), "0", false},
		{json.Number("7"), "7", true},
		{3, "3", true},
	}
	for _, tc := range tests {
		if got := stringify(tc.in); got != tc.str {
			t.Errorf("stringify(%#v) = %q, want %q", tc.in, got, tc.str)
		}
		if got := truthy(tc.in); got != tc.truthy {
			t.Errorf("truthy(%#v) = %v, want %v", tc.in, got, tc.truthy)
		}
	}
}
