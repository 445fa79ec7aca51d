package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `
package: wiring
providers:
  - name: Config
    value: DefaultConfig
  - name: EnglishGreeter
    class: NewEnglishGreeter
    implements: [Greeter]
    deps: [Config]
    default: true
  - name: SpanishGreeter
    class: NewSpanishGreeter
    implements: [Greeter]
  - name: Lobby
    class: NewLobby
    deps: [Greeter, "Greeter[]"]
`

// workspace lays out a source tree and an empty config in a temp dir so tests
// do not pick up a keg.yaml or .env from the package directory.
type workspace struct {
	dir    string
	src    string
	out    string
	config string
}

func newWorkspace(t *testing.T, manifests map[string]string) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:    dir,
		src:    filepath.Join(dir, "src"),
		out:    filepath.Join(dir, "src", "generated"),
		config: filepath.Join(dir, "keg.yaml"),
	}
	require.NoError(t, os.MkdirAll(ws.src, 0o755))
	require.NoError(t, os.WriteFile(ws.config, []byte("log: {level: error}\n"), 0o644))
	for name, content := range manifests {
		path := filepath.Join(ws.src, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return ws
}

func (ws workspace) args(cmd string, extra ...string) []string {
	args := []string{cmd, "-config", ws.config, "-env", filepath.Join(ws.dir, ".env"), "-src", ws.src}
	if cmd == "generate" {
		args = append(args, "-out", ws.out)
	}
	return append(args, extra...)
}

func runCmd(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// -------------------------
// dispatch
// -------------------------

func TestRun_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "no_args", args: nil, wantCode: exitUsage, wantStderr: "usage: keg"},
		{name: "unknown", args: []string{"frobnicate"}, wantCode: exitUsage, wantStderr: `unknown command "frobnicate"`},
		{name: "help", args: []string{"help"}, wantCode: exitOK, wantStdout: "usage: keg"},
		{name: "version", args: []string{"version"}, wantCode: exitOK, wantStdout: "keg dev\n"},
		{name: "bad_flag", args: []string{"validate", "-nope"}, wantCode: exitUsage, wantStderr: "flag provided but not defined"},
		{name: "flag_help", args: []string{"generate", "-h"}, wantCode: exitOK, wantStderr: "-check"},
		{name: "stray_args", args: []string{"validate", "extra"}, wantCode: exitUsage, wantStderr: "unexpected arguments"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, stdout, stderr := runCmd(tt.args...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			}
		})
	}
}

// -------------------------
// validate
// -------------------------

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": validManifest})

	code, stdout, stderr := runCmd(ws.args("validate")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "ok: 4 providers, 5 tokens\n", stdout)
}

func TestValidate_Dump(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": validManifest})

	code, stdout, _ := runCmd(ws.args("validate", "-dump")...)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, `Class: (string) (len=17) "NewEnglishGreeter"`)
	assert.NotContains(t, stdout, "0xc0", "pointer addresses must be hidden")
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": `
package: wiring
providers:
  - {name: A, class: NewA, deps: [B]}
  - {name: B, class: NewB, deps: [A]}
  - {name: C, class: NewC, deps: [Missing]}
  - {name: D, class: NewD, factory: MakeD}
`})

	code, stdout, stderr := runCmd(ws.args("validate")...)
	assert.Equal(t, exitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "[invalid-provider]")
	assert.Contains(t, stderr, "[dependency-not-found]")
	assert.Contains(t, stderr, "[cyclic-dependency] di: cyclic dependency: A -> B -> A")
	assert.Contains(t, stderr, "keg: 3 violation(s)")

	code, _, stderr = runCmd(ws.args("validate", "-fail-fast")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "keg: 1 violation(s)")
}

func TestValidate_StrictAmbiguity(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": `
package: wiring
providers:
  - {name: Console, class: NewConsole, implements: [Sink]}
  - {name: File, class: NewFile, implements: [Sink]}
  - {name: Fanout, class: NewFanout, deps: ["Sink[]"]}
`})

	code, _, stderr := runCmd(ws.args("validate")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "[ambiguous-binding]")

	code, stdout, stderr := runCmd(ws.args("validate", "-strict=false")...)
	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "warning: ")
	assert.Contains(t, stdout, "ok: 3 providers")
}

func TestValidate_LoadErrors(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, nil)

	code, _, stderr := runCmd(ws.args("validate")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "no manifests")

	code, _, stderr = runCmd("validate", "-config", filepath.Join(ws.dir, "missing.yaml"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "failed to read config")

	code, _, stderr = runCmd(ws.args("validate", "-log-format", "xml")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, `unknown log format "xml"`)
}

// -------------------------
// generate
// -------------------------

func TestGenerate_WritesThenChecks(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": validManifest})
	target := filepath.Join(ws.out, "container.gen.go")

	code, _, stderr := runCmd(ws.args("generate", "-check")...)
	assert.Equal(t, exitFailure, code, "missing file is stale")
	assert.Contains(t, stderr, "out of date")
	assert.NoFileExists(t, target)

	code, stdout, stderr := runCmd(ws.args("generate")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "wrote "+target+"\n", stdout)

	src, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by keg; DO NOT EDIT."))
	assert.Contains(t, string(src), "package wiring")
	assert.Contains(t, string(src), "func MustRegisterProviders(r *di.Registry)")

	code, stdout, _ = runCmd(ws.args("generate", "-check")...)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "up to date: "+target+"\n", stdout)

	require.NoError(t, os.WriteFile(filepath.Join(ws.src, "app.keg.yaml"),
		[]byte(validManifest+"  - {name: Version, value: '\"1.0.0\"'}\n"), 0o644))
	code, stdout, _ = runCmd(ws.args("generate", "-check")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "\n+")
	assert.Contains(t, stdout, `"1.0.0"`)
}

func TestGenerate_Overrides(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": validManifest})

	code, stdout, stderr := runCmd(ws.args("generate", "-file", "wiring.gen.go", "-package", "app")...)
	require.Equal(t, exitOK, code, stderr)

	target := filepath.Join(ws.out, "wiring.gen.go")
	assert.Contains(t, stdout, target)
	src, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package app")

	code, _, stderr = runCmd(ws.args("generate", "-file", "wiring.txt")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "must name a .go file")
}

func TestGenerate_NothingWrittenOnViolation(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, map[string]string{"app.keg.yaml": `
package: wiring
providers:
  - {name: A, class: NewA, deps: [Missing]}
`})

	code, _, _ := runCmd(ws.args("generate")...)
	assert.Equal(t, exitFailure, code)
	assert.NoDirExists(t, ws.out)
}
