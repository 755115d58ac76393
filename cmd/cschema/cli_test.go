package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cschema/internal/project"
	"cschema/internal/schema"
)

func writeManifest(t *testing.T, body string, headers ...string) *project.Manifest {
	t.Helper()
	dir := t.TempDir()
	for _, h := range headers {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, h)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, h), []byte("int f(void);\n"), 0o600))
	}
	path := filepath.Join(dir, project.ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	m, err := project.LoadManifest(path)
	require.NoError(t, err)
	return m
}

func TestResolveExtractOptionsFromManifest(t *testing.T) {
	m := writeManifest(t, `[extract]
headers = ["api.h"]
output = "gen"
format = "yaml"
clang_args = ["-DAPI"]
jobs = 3
cache = false
`, "api.h")

	opts, err := resolveExtractOptions(m, nil, extractFlags{includes: []string{"inc"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(m.Root, "api.h")}, opts.Headers)
	assert.Equal(t, filepath.Join(m.Root, "gen"), opts.Output)
	assert.Equal(t, schema.FormatYAML, opts.Format)
	assert.Equal(t, []string{"-DAPI", "-Iinc"}, opts.ClangArgs)
	assert.Equal(t, 3, opts.Jobs)
	assert.False(t, opts.Cache)
}

func TestFlagsOverrideManifest(t *testing.T) {
	m := writeManifest(t, "[extract]\nheaders = [\"api.h\"]\nformat = \"yaml\"\n", "api.h")
	fl := extractFlags{
		output:    "-",
		format:    "msgpack",
		keepGoing: true,
		defines:   []string{"X=1"},
		clangArgs: []string{"-std=c11"},
		changed:   map[string]bool{"output": true, "format": true, "keep-going": true},
	}
	opts, err := resolveExtractOptions(m, nil, fl)
	require.NoError(t, err)
	assert.Equal(t, "-", opts.Output)
	assert.Equal(t, schema.FormatMsgpack, opts.Format)
	assert.True(t, opts.KeepGoing)
	assert.True(t, opts.Cache)
	assert.Equal(t, []string{"-DX=1", "-std=c11"}, opts.ClangArgs)
}

func TestHeaderArgumentsWithoutManifest(t *testing.T) {
	opts, err := resolveExtractOptions(nil, []string{"a.h"}, extractFlags{})
	require.NoError(t, err)
	abs, err := filepath.Abs("a.h")
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, opts.Headers)
	assert.Equal(t, defaultOutput, opts.Output)
	assert.Equal(t, schema.FormatJSON, opts.Format)
}

func TestMissingHeadersIsUsageError(t *testing.T) {
	_, err := resolveExtractOptions(nil, nil, extractFlags{})
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = resolveExtractOptions(nil, []string{"a.h"}, extractFlags{format: "xml", changed: map[string]bool{"format": true}})
	assert.Equal(t, 2, exitCode(err))

	_, err = resolveExtractOptions(nil, []string{"a.h"}, extractFlags{jobs: -1, changed: map[string]bool{"jobs": true}})
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 2, exitCode(fmt.Errorf("wrapped: %w", usageError{msg: "bad flag"})))
}

func TestParseProgressMode(t *testing.T) {
	mode, err := parseProgressMode(" ON ")
	require.NoError(t, err)
	assert.Equal(t, progressTUI, mode)
	mode, err = parseProgressMode("")
	require.NoError(t, err)
	assert.Equal(t, progressAuto, mode)
	_, err = parseProgressMode("maybe")
	var usage usageError
	assert.ErrorAs(t, err, &usage)

	assert.False(t, progressPlain.interactive(false, false))
	assert.True(t, progressTUI.interactive(false, false))
	assert.False(t, progressTUI.interactive(true, false), "quiet")
	assert.False(t, progressTUI.interactive(false, true), "schema on stdout")
}

func TestParseLogLevel(t *testing.T) {
	l, err := parseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
	_, err = parseLogLevel("chatty")
	assert.Error(t, err)
}

func TestFormatPathForOutput(t *testing.T) {
	root := filepath.FromSlash("/work/proj")
	assert.Equal(t, "schema/types.json", formatPathForOutput(root, filepath.Join(root, "schema", "types.json")))
	outside := filepath.FromSlash("/elsewhere/x.h")
	assert.Equal(t, outside, formatPathForOutput(root, outside))
	assert.Equal(t, "rel", formatPathForOutput("", "rel"))
}

func TestFindHeaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	for _, f := range []string{"b.h", "a.c", "include/a.h"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(f)), nil, 0o600))
	}
	headers, err := findHeaders(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.h", "include/a.h"}, headers)
}

func TestRunSessionRunsCleanupsNewestFirst(t *testing.T) {
	var order []string
	var s runSession
	s.add(func(failed bool) { order = append(order, fmt.Sprintf("first:%v", failed)) })
	s.add(nil)
	s.add(func(failed bool) { order = append(order, fmt.Sprintf("second:%v", failed)) })
	s.finish(errors.New("x"))
	s.finish(nil)
	assert.Equal(t, []string{"second:true", "first:true"}, order)
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderVersionJSON(&buf, versionOptions{format: "json", showHash: true}))
	var payload versionPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "cschema", payload.Tool)
	assert.Equal(t, schema.Version, payload.SchemaVersion)
	assert.NotEmpty(t, payload.GitCommit)
	assert.Empty(t, payload.BuildDate)
}
