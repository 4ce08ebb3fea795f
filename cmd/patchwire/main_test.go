package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/patchwire/internal/config"
	"github.com/vango-dev/patchwire/internal/errors"
	"github.com/vango-dev/patchwire/pkg/snapshot"
)

const testSecret = "cli-test-secret-0123456789abcdef"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "old.html", "<div>\n  <span>Count: 0</span>\n</div>\n")
	next := writeFile(t, dir, "new.html", "<div><span>Count: 1</span></div>")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"full", []string{"diff", prev, next},
			`[{"type":"update_text","path":[0,0],"data":{"text":"Count: 1"}}]` + "\n"},
		{"minify", []string{"diff", prev, next, "--minify"},
			`[{"t":"t","p":[0,0],"d":{"x":"Count: 1"}}]` + "\n"},
		{"mode flag", []string{"diff", prev, next, "--mode", "min"},
			`[{"t":"t","p":[0,0],"d":{"x":"Count: 1"}}]` + "\n"},
		{"unchanged", []string{"diff", prev, prev}, "[]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, "", tc.args...)
			if err != nil {
				t.Fatal(err)
			}
			if out != tc.want {
				t.Errorf("output = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestDiffOptimizes(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "old.html", `<ul><li key="a"><b>A</b></li></ul>`)
	next := writeFile(t, dir, "new.html", `<ul><li key="z"><i>Z</i></li></ul>`)

	optimized, err := execute(t, "", "diff", prev, next)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := execute(t, "", "diff", prev, next, "--raw")
	if err != nil {
		t.Fatal(err)
	}
	var a, b []json.RawMessage
	if err := json.Unmarshal([]byte(optimized), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatal(err)
	}
	if len(a) > len(b) {
		t.Errorf("optimized stream has %d patches, raw %d", len(a), len(b))
	}
}

func TestDiffFromStdin(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "old.html", "<p>a</p>")
	out, err := execute(t, "<p>b</p>", "diff", prev, "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"text":"b"`) {
		t.Errorf("output = %q", out)
	}
}

func TestDiffErrors(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "old.html", "<p>a</p>")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing file", []string{"diff", prev, filepath.Join(dir, "nope.html")}, "P020"},
		{"bad mode", []string{"diff", prev, prev, "--mode", "compact"}, "P041"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, "", tc.args...)
			if got := errorCode(err); got != tc.code {
				t.Errorf("error = %v (code %q), want %s", err, got, tc.code)
			}
		})
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "old.html", "<ul>\n  <li key=\"a\">A</li>\n</ul>")
	next := writeFile(t, dir, "new.html", `<ul><li key="a">A</li><li key="b">B</li></ul>`)

	stream, err := execute(t, "", "diff", prev, next, "--minify")
	if err != nil {
		t.Fatal(err)
	}
	patches := writeFile(t, dir, "patches.json", stream)

	out, err := execute(t, "", "apply", prev, patches, "--minify")
	if err != nil {
		t.Fatal(err)
	}
	if want := `<ul><li key="a">A</li><li key="b">B</li></ul>` + "\n"; out != want {
		t.Errorf("apply output = %q, want %q", out, want)
	}
}

func TestApplyBadPatches(t *testing.T) {
	dir := t.TempDir()
	markup := writeFile(t, dir, "page.html", "<div><p>x</p></div>")
	unresolved := writeFile(t, dir, "unresolved.json", `[{"type":"remove","path":[5]},{"type":"update_text","path":[0,0],"data":{"text":"y"}}]`)
	garbage := writeFile(t, dir, "garbage.json", `{"not":"a list"}`)

	out, err := execute(t, "", "apply", markup, unresolved)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<div><p>y</p></div>\n"; out != want {
		t.Errorf("lenient apply = %q, want %q", out, want)
	}

	if _, err := execute(t, "", "apply", markup, unresolved, "--strict"); errorCode(err) != "P040" {
		t.Errorf("strict apply err = %v", err)
	}
	if _, err := execute(t, "", "apply", markup, garbage); errorCode(err) != "P040" {
		t.Errorf("garbage stream err = %v", err)
	}
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "list.html", "<ul class=\"list\">\n  <li key=\"a\">A</li>\n</ul>\n")

	out, err := execute(t, "", "parse", path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"tag":"ul","attrs":{"class":"list"},"children":[{"tag":"li","attrs":{"key":"a"},"children":[{"text":"A"}]}]}` + "\n"
	if out != want {
		t.Errorf("parse = %q, want %q", out, want)
	}

	out, err = execute(t, "", "parse", path, "--html")
	if err != nil {
		t.Fatal(err)
	}
	if want := `<ul class="list"><li key="a">A</li></ul>` + "\n"; out != want {
		t.Errorf("parse --html = %q, want %q", out, want)
	}

	out, err = execute(t, "", "parse", path, "--pretty")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\n  \"attrs\"") {
		t.Errorf("parse --pretty not indented: %q", out)
	}
}

func TestSignAndVerify(t *testing.T) {
	dir := t.TempDir()
	state := writeFile(t, dir, "state.json", `{"count":1,"items":["a","b"],"price":1.50}`)
	tampered := writeFile(t, dir, "tampered.json", `{"count":2,"items":["a","b"],"price":1.50}`)

	out, err := execute(t, "", "sign", state, "--id", "c1", "--secret", testSecret, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var signed struct {
		ID          string `json:"id"`
		Signature   string `json:"signature"`
		Fingerprint string `json:"fingerprint"`
	}
	if err := json.Unmarshal([]byte(out), &signed); err != nil {
		t.Fatalf("sign output %q: %v", out, err)
	}
	if signed.ID != "c1" || len(signed.Signature) != 64 || signed.Fingerprint == "" {
		t.Errorf("signed = %+v", signed)
	}

	out, err = execute(t, "", "verify", state, "--id", "c1", "--signature", signed.Signature, "--secret", testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "signature valid for c1") {
		t.Errorf("verify output = %q", out)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"tampered state", []string{"verify", tampered, "--id", "c1", "--signature", signed.Signature, "--secret", testSecret}},
		{"other id", []string{"verify", state, "--id", "c2", "--signature", signed.Signature, "--secret", testSecret}},
		{"other secret", []string{"verify", state, "--id", "c1", "--signature", signed.Signature, "--secret", testSecret + "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := execute(t, "", tc.args...); errorCode(err) != "P022" {
				t.Errorf("err = %v, want P022", err)
			}
		})
	}
}

func TestSignSecretSources(t *testing.T) {
	t.Setenv(config.EnvSecret, "")
	dir := t.TempDir()
	state := writeFile(t, dir, "state.json", `{"count":1}`)

	if _, err := execute(t, "", "sign", state, "--id", "c1", "-c", dir); errorCode(err) != "P003" {
		t.Errorf("no secret err = %v, want P003", err)
	}
	if _, err := execute(t, "", "sign", state, "--id", "c1", "--secret", "short"); errorCode(err) != "P003" {
		t.Errorf("short secret err = %v, want P003", err)
	}

	writeFile(t, dir, "patchwire.json", `{"secret":"`+testSecret+`"}`)
	fromConfig, err := execute(t, "", "sign", state, "--id", "c1", "-c", dir)
	if err != nil {
		t.Fatal(err)
	}
	fromFlag, err := execute(t, "", "sign", state, "--id", "c1", "--secret", testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if fromConfig != fromFlag {
		t.Errorf("config secret output %q differs from flag output %q", fromConfig, fromFlag)
	}

	t.Setenv(config.EnvSecret, testSecret)
	fromEnv, err := execute(t, "", "sign", state, "--id", "c1", "-c", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if fromEnv != fromFlag {
		t.Errorf("env secret output %q differs from flag output %q", fromEnv, fromFlag)
	}
}

func TestInvalidStateFile(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"array.json": `[1,2]`,
		"null.json":  `null`,
		"broken":     `{"count":`,
	} {
		path := writeFile(t, dir, name, content)
		if _, err := execute(t, "", "sign", path, "--id", "c1", "--secret", testSecret); errorCode(err) != "P021" {
			t.Errorf("%s: err = %v, want P021", name, err)
		}
	}
}

func TestSignRequiresID(t *testing.T) {
	dir := t.TempDir()
	state := writeFile(t, dir, "state.json", `{}`)
	if _, err := execute(t, "", "sign", state, "--secret", testSecret); err == nil {
		t.Error("sign without --id succeeded")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q", out)
	}

	out, err = execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Wire modes: full, minified") {
		t.Errorf("version output = %q", out)
	}
}

func TestOpenStore(t *testing.T) {
	logger := config.New().NewLogger(&bytes.Buffer{})

	cfg := config.New()
	store, err := openStore(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*snapshot.MemoryStore); !ok {
		t.Errorf("memory backend = %T", store)
	}

	cfg.Snapshot.Backend = "badger"
	cfg.Snapshot.Dir = t.TempDir()
	store, err = openStore(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*snapshot.BadgerStore); !ok {
		t.Errorf("badger backend = %T", store)
	}
	if err := store.Save(context.Background(), "c1", &snapshot.Snapshot{Version: 1}); err != nil {
		t.Errorf("badger save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("badger close: %v", err)
	}

	cfg.Snapshot.Backend = "s3"
	cfg.Snapshot.Bucket = "snapshots"
	cfg.Snapshot.Region = "us-east-1"
	store, err = openStore(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*snapshot.S3Store); !ok {
		t.Errorf("s3 backend = %T", store)
	}
}
