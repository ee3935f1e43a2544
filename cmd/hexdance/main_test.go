package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexdance/hexdance/internal/fixtures"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func sampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := fixtures.WriteSamples(dir)
	require.NoError(t, err)
	return dir
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"no arguments shows help", nil, exitOK, "Usage:"},
		{"help flag", []string{"--help"}, exitOK, "analyze"},
		{"version flag", []string{"--version"}, exitOK, "hexdance version"},
		{"invalid flag", []string{"--invalid-flag"}, exitUsage, ""},
		{"unknown command", []string{"frobnicate"}, exitUsage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, res.code, res.stderr)
			assert.Contains(t, res.stdout, tt.wantOut)
		})
	}
}

func TestAnalyze_Text(t *testing.T) {
	dir := sampleDir(t)

	res := runCLI(t, "analyze", "--no-color", filepath.Join(dir, "hello.elf"), filepath.Join(dir, "bundle.zip"))
	require.Equal(t, exitOK, res.code, res.stderr)

	assert.Contains(t, res.stdout, "==> "+filepath.Join(dir, "hello.elf"))
	assert.Contains(t, res.stdout, "ELF (Linux ELF Executable")
	assert.Contains(t, res.stdout, "  main (G)\n")
	assert.Contains(t, res.stdout, "readme.txt (20 Bytes)")
	assert.Contains(t, res.stdout, "2 files: 2 recognized, 0 unknown, 0 malformed, 0 errors")
	assert.NotContains(t, res.stdout, "\x1b[")
}

func TestAnalyze_TextFileInfoAndDescriptions(t *testing.T) {
	dir := sampleDir(t)

	res := runCLI(t, "analyze", "--no-color", filepath.Join(dir, "hello.macho"))
	require.Equal(t, exitOK, res.code, res.stderr)

	assert.Contains(t, res.stdout, "File Name: hello.macho\n")
	assert.Contains(t, res.stdout, "Last Modified: ")
	assert.Contains(t, res.stdout, "  printf (U)\n      Prints formatted text to stdout. Part of stdio.h\n")
}

func TestAnalyze_JSONRecursive(t *testing.T) {
	dir := sampleDir(t)

	res := runCLI(t, "analyze", "-f", "json", "-r", "--workers", "2", dir)
	require.Equal(t, exitOK, res.code, res.stderr)

	var out struct {
		Summary map[string]int `json:"summary"`
		Files   []struct {
			Path    string   `json:"path"`
			Format  string   `json:"format"`
			Entries []string `json:"entries"`
			Blocks  []string `json:"blocks"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))

	samples := fixtures.Samples()
	assert.Equal(t, len(samples), out.Summary["total"])
	assert.Equal(t, 1, out.Summary["unknown"])
	require.Len(t, out.Files, len(samples))

	formats := make(map[string]string)
	for _, f := range out.Files {
		formats[filepath.Base(f.Path)] = f.Format
		if f.Format == "ZIP" {
			assert.Len(t, f.Blocks, 1)
		}
	}
	assert.Equal(t, "Mach-O", formats["hello.universal"])
	assert.Equal(t, "PE", formats["hello64.dll"])
	assert.Equal(t, "Unknown", formats["notes.txt"])
}

func TestAnalyze_DirectoryWithoutRecursive(t *testing.T) {
	res := runCLI(t, "analyze", sampleDir(t))
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "--recursive")
}

func TestAnalyze_MissingFile(t *testing.T) {
	dir := sampleDir(t)

	res := runCLI(t, "analyze", "--no-color", filepath.Join(dir, "pixel.png"), filepath.Join(dir, "nope.bin"))
	assert.Equal(t, exitFileError, res.code)
	assert.Contains(t, res.stdout, "Width: 640")
	assert.Contains(t, res.stdout, "error: open ")
	assert.Contains(t, res.stdout, "1 errors")
}

func TestAnalyze_MalformedIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	b := fixtures.MachO(true, true, nil)
	b[16], b[17], b[18], b[19] = 0, 0, 0, 0
	path := filepath.Join(dir, "broken.macho")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	res := runCLI(t, "analyze", "--no-color", path)
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "malformed: ")
	assert.Contains(t, res.stdout, "First Bytes: 0xCFFAEDFE")
}

func TestAnalyze_Config(t *testing.T) {
	dir := sampleDir(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  format: json\n  color: never\n"), 0o644))

	res := runCLI(t, "analyze", "-c", cfg, filepath.Join(dir, "anim.gif"))
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(res.stdout), "{"))

	// flags win over the file
	res = runCLI(t, "analyze", "-c", cfg, "-f", "text", filepath.Join(dir, "anim.gif"))
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "==> ")
}

func TestAnalyze_InvalidConfig(t *testing.T) {
	dir := sampleDir(t)

	res := runCLI(t, "analyze", "-f", "xml", filepath.Join(dir, "anim.gif"))
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "invalid output.format")

	t.Setenv("HEXDANCE_WORKERS", "lots")
	res = runCLI(t, "analyze", filepath.Join(dir, "anim.gif"))
	assert.Equal(t, exitUsage, res.code)
}

func TestAnalyze_VerboseLogsToStderr(t *testing.T) {
	dir := sampleDir(t)

	res := runCLI(t, "analyze", "-v", "--no-color", filepath.Join(dir, "photo.jpg"))
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stderr, "component=analyzer")
	assert.NotContains(t, res.stdout, "component=")
}

func TestFormats(t *testing.T) {
	res := runCLI(t, "formats")
	require.Equal(t, exitOK, res.code)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "Mach-O"))

	res = runCLI(t, "formats", "--json")
	require.Equal(t, exitOK, res.code)
	var sigs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &sigs))
	require.Len(t, sigs, 8)
	assert.Equal(t, "ZIP", sigs[7]["format"])
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "version")
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "hexdance version dev")

	res = runCLI(t, "version", "--json")
	require.Equal(t, exitOK, res.code)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, "dev", info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestSamples(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	res := runCLI(t, "samples", dir)
	require.Equal(t, exitOK, res.code, res.stderr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(fixtures.Samples()))
	assert.Contains(t, res.stdout, filepath.Join(dir, "report.pdf"))

	res = runCLI(t, "samples")
	assert.Equal(t, exitUsage, res.code)
}
