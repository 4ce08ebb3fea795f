package signature

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testSecret)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	return s
}

func TestNewSignerRejectsShortSecret(t *testing.T) {
	if _, err := NewSigner([]byte("short")); !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("err = %v, want ErrSecretTooShort", err)
	}
}

func TestSignVerify(t *testing.T) {
	s := newTestSigner(t)
	state := map[string]any{
		"count": 1,
		"name":  "alice",
		"tags":  []any{"a", "b"},
		"prefs": map[string]any{"theme": "dark", "size": 12},
	}

	sig, err := s.Sign(state, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(sig))
	}
	if !s.Verify(state, "c1", sig) {
		t.Fatal("Verify(sign(state)) = false")
	}
	if err := s.Check(state, "c1", sig); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	s := newTestSigner(t)
	state := map[string]any{"count": 1, "name": "alice", "nested": map[string]any{"x": true}}
	sig, _ := s.Sign(state, "c1")

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"changed_value", func(m map[string]any) { m["count"] = 2 }},
		{"type_coercion", func(m map[string]any) { m["count"] = "1" }},
		{"added_field", func(m map[string]any) { m["admin"] = true }},
		{"removed_field", func(m map[string]any) { delete(m, "name") }},
		{"nested_value", func(m map[string]any) { m["nested"] = map[string]any{"x": false} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tampered := map[string]any{"count": 1, "name": "alice", "nested": map[string]any{"x": true}}
			tc.mutate(tampered)
			if s.Verify(tampered, "c1", sig) {
				t.Error("Verify() = true for tampered state")
			}
			if err := s.Check(tampered, "c1", sig); !errors.Is(err, ErrInvalid) {
				t.Errorf("Check() = %v, want ErrInvalid", err)
			}
		})
	}

	if s.Verify(state, "c2", sig) {
		t.Error("signature verified for another component id")
	}
	if s.Verify(state, "c1", "zz"+sig[2:]) {
		t.Error("non-hex signature verified")
	}
	if s.Verify(state, "c1", "") {
		t.Error("empty signature verified")
	}

	other, _ := NewSigner([]byte("another-secret-of-enough-length"))
	if other.Verify(state, "c1", sig) {
		t.Error("signature verified under another secret")
	}
}

func TestSignatureSurvivesJSONRoundTrip(t *testing.T) {
	s := newTestSigner(t)
	state := map[string]any{
		"b":     2,
		"a":     map[string]any{"z": 1.5, "y": []any{3, "x"}},
		"big":   int64(9007199254740993),
		"html":  "<b>&</b>",
		"empty": nil,
	}
	sig, _ := s.Sign(state, "c1")

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var back map[string]any
	if err := dec.Decode(&back); err != nil {
		t.Fatal(err)
	}
	if !s.Verify(back, "c1", sig) {
		t.Error("signature did not survive a JSON round trip")
	}
}

func TestCanonicalSortsNestedKeys(t *testing.T) {
	type inner struct {
		Z int `json:"z"`
		A int `json:"a"`
	}
	a := map[string]any{"outer": map[string]any{"z": 1, "a": 2}, "list": []any{map[string]any{"q": 1, "p": 2}}}
	b := map[string]any{"list": []any{map[string]any{"p": 2, "q": 1}}, "outer": inner{Z: 1, A: 2}}

	ca, err := Canonical(a)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := Canonical(b)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"list":[{"p":2,"q":1}],"outer":{"a":2,"z":1}}`
	if string(ca) != want || string(cb) != want {
		t.Errorf("Canonical() =\n%s\n%s\nwant\n%s", ca, cb, want)
	}

	if empty, _ := Canonical(nil); string(empty) != "{}" {
		t.Errorf("Canonical(nil) = %s", empty)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(map[string]any{"x": 1, "y": "two"})
	b := Fingerprint(map[string]any{"y": "two", "x": 1})
	if a == "" || a != b {
		t.Errorf("Fingerprint not order independent: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d", len(a))
	}
	if c := Fingerprint(map[string]any{"x": 2, "y": "two"}); c == a {
		t.Error("different states share a fingerprint")
	}

	// Unencodable state degrades to "".
	if got := Fingerprint(map[string]any{"bad": math.Inf(1)}); got != "" {
		t.Errorf("Fingerprint(unencodable) = %q, want empty", got)
	}
	if got := Fingerprint(map[string]any{"ch": make(chan int)}); got != "" {
		t.Errorf("Fingerprint(chan) = %q, want empty", got)
	}
}

func TestSignUnencodableState(t *testing.T) {
	s := newTestSigner(t)
	if _, err := s.Sign(map[string]any{"f": func() {}}, "c1"); err == nil {
		t.Error("Sign() succeeded for unencodable state")
	}
}
