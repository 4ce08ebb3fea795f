package protocol

import (
	"encoding/json"
	"testing"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

func testEnvelope() *Envelope {
	return &Envelope{
		ID:          "c1",
		Version:     2,
		Patches:     []vdom.Patch{vdom.NewUpdateTextPatch(vdom.Path{0, 0}, "Count: 1")},
		State:       map[string]any{"name": "x", "count": 1},
		Fingerprint: "fp",
		Signature:   "sig",
	}
}

func TestToResponseBytes(t *testing.T) {
	got, err := NewEncoder(ModeMinified).ToResponse(testEnvelope())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"s":true,"c":{"i":"c1","v":2,"p":[{"t":"t","p":[0,0],"d":{"x":"Count: 1"}}],"st":{"count":1,"name":"x"},"f":"fp","sg":"sig"}}`
	if string(got) != want {
		t.Errorf("ToResponse() =\n%s\nwant\n%s", got, want)
	}
}

func TestToResponseOptionalFields(t *testing.T) {
	env := testEnvelope()
	env.Patches = nil
	env.State = nil
	env.Errors = map[string][]string{"email": {"required"}}
	env.QueryString = map[string]any{"q": "go"}
	env.Events = []Event{{Name: "saved", To: "list"}}
	env.BrowserEvents = []BrowserEvent{{Name: "toast", Detail: "ok"}}

	got, err := NewEncoder(ModeFull).ToResponse(env)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"s":true,"c":{"i":"c1","v":2,"p":[],"st":{},"f":"fp","sg":"sig",` +
		`"e":{"email":["required"]},"q":{"q":"go"},"ev":[{"name":"saved","to":"list"}],"be":[{"name":"toast","detail":"ok"}]}}`
	if string(got) != want {
		t.Errorf("ToResponse() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeEnvelopeBytes(t *testing.T) {
	got, err := NewEncoder(ModeFull).EncodeEnvelope(testEnvelope())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"c1","version":2,"patches":[{"type":"update_text","path":[0,0],"data":{"text":"Count: 1"}}],"state":{"count":1,"name":"x"},"fingerprint":"fp","signature":"sig"}`
	if string(got) != want {
		t.Errorf("EncodeEnvelope() =\n%s\nwant\n%s", got, want)
	}
}

func TestDecodeResponseRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeFull, ModeMinified} {
		t.Run(mode.String(), func(t *testing.T) {
			data, err := NewEncoder(mode).ToResponse(testEnvelope())
			if err != nil {
				t.Fatal(err)
			}
			env, em, err := NewDecoder(mode).DecodeResponse(data)
			if err != nil || em != nil {
				t.Fatalf("DecodeResponse() = %v, %v", em, err)
			}
			if env.ID != "c1" || env.Version != 2 || env.Fingerprint != "fp" || env.Signature != "sig" {
				t.Errorf("envelope = %+v", env)
			}
			if len(env.Patches) != 1 || env.Patches[0].Text != "Count: 1" {
				t.Errorf("patches = %v", env.Patches)
			}
			// Numbers stay exact.
			if n, ok := env.State["count"].(json.Number); !ok || n.String() != "1" {
				t.Errorf("count = %#v, want json.Number 1", env.State["count"])
			}
		})
	}
}

func TestDecodeEnvelopeRoundTrip(t *testing.T) {
	data, _ := NewEncoder(ModeMinified).EncodeEnvelope(testEnvelope())
	env, err := NewDecoder(ModeMinified).DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.ID != "c1" || len(env.Patches) != 1 || env.State["name"] != "x" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestErrorResponse(t *testing.T) {
	got := ToErrorResponse(NewError(ErrInvalidSignature, "bad"))
	want := `{"s":false,"e":{"code":2,"message":"bad"}}`
	if string(got) != want {
		t.Errorf("ToErrorResponse() = %s, want %s", got, want)
	}

	env, em, err := NewDecoder(ModeFull).DecodeResponse(got)
	if err != nil || env != nil {
		t.Fatalf("DecodeResponse() = %v, %v", env, err)
	}
	if em.Code != ErrInvalidSignature || em.Message != "bad" || em.IsFatal() {
		t.Errorf("error message = %+v", em)
	}
}
