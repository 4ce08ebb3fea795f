package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "P001",
			wantMsg: "Invalid config file",
			wantCat: CategoryConfig,
		},
		{
			name:    "signature error",
			code:    "P022",
			wantMsg: "Signature mismatch",
			wantCat: CategorySignature,
		},
		{
			name:    "snapshot error",
			code:    "P061",
			wantMsg: "Snapshot store unavailable",
			wantCat: CategorySnapshot,
		},
		{
			name:    "unknown error code",
			code:    "P999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "a.html")
	if err.Message != `file "a.html" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestErrorString(t *testing.T) {
	if got := New("P003").Error(); got != "P003: Signing secret missing" {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("open x: no such file")
	if got := New("P020").Wrap(cause).Error(); got != "P020: Cannot read input file: open x: no such file" {
		t.Errorf("Error() = %q", got)
	}

	if got := (&Error{Message: "plain"}).Error(); got != "plain" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := New("P020").Wrap(cause)
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is does not see the wrapped error")
	}

	var target *Error
	if !stderrors.As(error(err), &target) || target.Code != "P020" {
		t.Error("errors.As failed")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "P001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("P002")
	if FromError(coded, "P001") != coded {
		t.Error("FromError should return an *Error unchanged")
	}

	plain := stderrors.New("boom")
	wrapped := FromError(plain, "P060")
	if wrapped.Code != "P060" || wrapped.Wrapped != plain {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestWithLocationReadsContext(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "patchwire.yaml")
	content := "secret: x\nwire:\n  minify: true\n\tmaxPatches: 10\nlog:\n  level: info\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("P001").WithLocation(file, 4, 1)
	if len(err.Context) != 5 {
		t.Fatalf("Context = %q, want 5 lines", err.Context)
	}
	if err.Context[2] != "\tmaxPatches: 10" {
		t.Errorf("center line = %q", err.Context[2])
	}

	DisableColors()
	defer EnableColors()
	out := err.WithSuggestion("use spaces").Format()
	for _, want := range []string{"ERROR P001: Invalid config file", file + ":4:1", "→    4 │", "Hint: use spaces"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != file+":4:1: P001: Invalid config file" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestWithLocationMissingFile(t *testing.T) {
	err := New("P001").WithLocation("/does/not/exist.yaml", 3, 0)
	if err.Context != nil {
		t.Errorf("Context = %q, want nil", err.Context)
	}
	if err.Location.String() != "/does/not/exist.yaml:3" {
		t.Errorf("Location = %q", err.Location)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("P022").WithSuggestion(`re-sign with "patchwire sign"`).Wrap(stderrors.New("mac differs"))
	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", jerr)
	}
	if got["code"] != "P022" || got["category"] != "signature" || got["cause"] != "mac differs" {
		t.Errorf("FormatJSON() = %v", got)
	}
	if _, ok := got["location"]; ok {
		t.Error("location present without a location")
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, New("P041"))
	if !strings.Contains(buf.String(), "ERROR P041: Invalid wire mode") {
		t.Errorf("Fprint(*Error) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint(error) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q longer than 20", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should give no lines")
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 || codes[0] != "P001" {
		t.Fatalf("codes = %v", codes)
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s = %+v", code, tmpl)
		}
	}

	Register("P900", ErrorTemplate{Category: CategoryCLI, Message: "Test"})
	defer delete(registry, "P900")
	if New("P900").Message != "Test" {
		t.Error("registered template not used")
	}
}
