package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/covlines/internal/coverage"
	"github.com/unbound-force/covlines/internal/report"
)

const fixtureSource = `package foo

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
`

const fixtureProfile = `mode: set
example.com/foo/abs.go:3.21,4.11 1 1
example.com/foo/abs.go:4.11,6.3 1 0
example.com/foo/abs.go:7.2,7.10 1 1
`

// writeFixture lays out a module with abs.go and coverage.out and
// returns its directory.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":       "module example.com/foo\n\ngo 1.24\n",
		"abs.go":       fixtureSource,
		"other.go":     "package foo\n\nfunc Other() int {\n\treturn 1\n}\n",
		"coverage.out": fixtureProfile,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func defaultFlags() *globalFlags {
	return &globalFlags{precision: -1}
}

// ---------------------------------------------------------------------------
// runLines tests
// ---------------------------------------------------------------------------

func TestRunLines_InvalidFormat(t *testing.T) {
	err := runLines(linesParams{
		flags:     defaultFlags(),
		storePath: ".",
		file:      "abs.go",
		format:    "yaml",
		stdout:    &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), `invalid format "yaml"`) {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunLines_JSONFormat(t *testing.T) {
	dir := writeFixture(t)
	var stdout bytes.Buffer
	err := runLines(linesParams{
		flags:     defaultFlags(),
		storePath: dir,
		file:      filepath.Join(dir, "abs.go"),
		format:    "json",
		stdout:    &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed report.LinesReport
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, stdout.String())
	}
	if diff := cmp.Diff([]int{4, 7}, parsed.Coverage.Covered); diff != "" {
		t.Errorf("covered mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{5}, parsed.Coverage.Uncovered); diff != "" {
		t.Errorf("uncovered mismatch (-want +got):\n%s", diff)
	}
	if parsed.PercentText != "66.7%" {
		t.Errorf("percent_text = %q, want 66.7%%", parsed.PercentText)
	}
}

func TestRunLines_TextFormat(t *testing.T) {
	dir := writeFixture(t)
	var stdout bytes.Buffer
	err := runLines(linesParams{
		flags:     defaultFlags(),
		storePath: filepath.Join(dir, "coverage.out"),
		file:      filepath.Join(dir, "abs.go"),
		format:    "text",
		stdout:    &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "abs.go") {
		t.Errorf("expected output to contain 'abs.go', got:\n%s", out)
	}
	if !strings.Contains(out, "66.7%") {
		t.Errorf("expected output to contain '66.7%%', got:\n%s", out)
	}
}

func TestRunLines_PrecisionOverride(t *testing.T) {
	dir := writeFixture(t)
	flags := defaultFlags()
	flags.precision = 0
	var stdout bytes.Buffer
	err := runLines(linesParams{
		flags:     flags,
		storePath: dir,
		file:      filepath.Join(dir, "abs.go"),
		format:    "json",
		stdout:    &stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), `"percent_text": "67%"`) {
		t.Errorf("expected 0-decimal percent, got:\n%s", stdout.String())
	}
}

func TestRunLines_UnmeasuredFile(t *testing.T) {
	dir := writeFixture(t)

	err := runLines(linesParams{
		flags:     defaultFlags(),
		storePath: dir,
		file:      filepath.Join(dir, "other.go"),
		format:    "json",
		stdout:    &bytes.Buffer{},
	})
	if !errors.Is(err, coverage.ErrFileNotMeasured) {
		t.Fatalf("expected ErrFileNotMeasured from a text profile, got %v", err)
	}

	flags := defaultFlags()
	flags.missing = "empty"
	var stdout bytes.Buffer
	err = runLines(linesParams{
		flags:     flags,
		storePath: dir,
		file:      filepath.Join(dir, "other.go"),
		format:    "json",
		stdout:    &stdout,
	})
	if err != nil {
		t.Fatalf("unexpected error with --missing=empty: %v", err)
	}
	var parsed report.LinesReport
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Coverage.Measured {
		t.Error("expected measured = false")
	}
	if diff := cmp.Diff([]int{4}, parsed.Coverage.Uncovered); diff != "" {
		t.Errorf("uncovered mismatch (-want +got):\n%s", diff)
	}
}

func TestRunLines_StoreNotFound(t *testing.T) {
	err := runLines(linesParams{
		flags:     defaultFlags(),
		storePath: t.TempDir(),
		file:      "abs.go",
		format:    "text",
		stdout:    &bytes.Buffer{},
	})
	if !errors.Is(err, coverage.ErrStoreNotFound) {
		t.Errorf("expected ErrStoreNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// runFiles / runFuncs tests
// ---------------------------------------------------------------------------

func TestRunFiles_JSONFormat(t *testing.T) {
	dir := writeFixture(t)
	var stdout bytes.Buffer
	err := runFiles(filesParams{
		flags:     defaultFlags(),
		storePath: dir,
		format:    "json",
		stdout:    &stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	var parsed report.FilesReport
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed.Files) != 1 || parsed.Files[0].Name != "example.com/foo/abs.go" {
		t.Errorf("unexpected files: %+v", parsed.Files)
	}
	if parsed.Kind != coverage.KindProfile {
		t.Errorf("kind = %q, want profile", parsed.Kind)
	}
}

func TestRunFuncs_TextFormat(t *testing.T) {
	dir := writeFixture(t)
	var stdout bytes.Buffer
	err := runFuncs(funcsParams{
		flags:         defaultFlags(),
		storePath:     dir,
		file:          filepath.Join(dir, "abs.go"),
		format:        "text",
		crapThreshold: 15,
		stdout:        &stdout,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Abs") {
		t.Errorf("expected output to contain 'Abs', got:\n%s", stdout.String())
	}
}

func TestRunFuncs_InvalidThreshold(t *testing.T) {
	err := runFuncs(funcsParams{
		flags:         defaultFlags(),
		storePath:     ".",
		file:          "abs.go",
		format:        "text",
		crapThreshold: 0,
		stdout:        &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "crap threshold") {
		t.Errorf("expected crap threshold error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// loadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfig_NoOverride(t *testing.T) {
	cfg, err := loadConfig("", -1, "")
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Report.Precision != 1 {
		t.Errorf("precision = %d, want 1 (default)", cfg.Report.Precision)
	}
	if cfg.Store.Missing != "auto" {
		t.Errorf("missing = %q, want auto (default)", cfg.Store.Missing)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".covlines.yaml")
	content := []byte("report:\n  precision: 3\nstore:\n  missing: error\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	cfg, err := loadConfig(path, 2, "empty")
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Report.Precision != 2 {
		t.Errorf("precision = %d, want 2", cfg.Report.Precision)
	}
	if cfg.Store.Missing != "empty" {
		t.Errorf("missing = %q, want empty", cfg.Store.Missing)
	}
}

func TestLoadConfig_InvalidFlagRejected(t *testing.T) {
	_, err := loadConfig("", 9, "")
	if err == nil {
		t.Fatal("expected error for precision=9, got nil")
	}
	if !strings.Contains(err.Error(), "invalid flags") {
		t.Errorf("error should mention flags, got: %s", err)
	}
}

func TestLoadConfig_YAMLErrorMentionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".covlines.yaml")
	if err := os.WriteFile(path, []byte("store:\n  missing: never\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(path, -1, "")
	if err == nil {
		t.Fatal("expected error for invalid YAML policy")
	}
	if !strings.Contains(err.Error(), "config file") {
		t.Errorf("error should mention 'config file', got: %s", err)
	}
}

// ---------------------------------------------------------------------------
// schema command
// ---------------------------------------------------------------------------

func TestSchemaCmd_PrintsSchema(t *testing.T) {
	cmd := newSchemaCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("schema output is not valid JSON: %v", err)
	}
	if parsed["title"] != "covlines Lines Report" {
		t.Errorf("unexpected schema title: %v", parsed["title"])
	}
}

func TestLinesCmd_Execute(t *testing.T) {
	dir := writeFixture(t)
	cmd := newLinesCmd(defaultFlags())
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{dir, filepath.Join(dir, "abs.go"), "--format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), `"percent_text"`) {
		t.Errorf("expected JSON output, got:\n%s", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// init command
// ---------------------------------------------------------------------------

func TestRunInit_WritesLoadableConfig(t *testing.T) {
	dir := writeFixture(t)
	var stdout bytes.Buffer
	if err := runInit(initParams{targetDir: dir, stdout: &stdout}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "created:") {
		t.Errorf("expected created summary, got:\n%s", stdout.String())
	}

	cfg, err := loadConfig(filepath.Join(dir, ".covlines.yaml"), -1, "")
	if err != nil {
		t.Fatalf("scaffolded config does not load: %v", err)
	}
	if cfg.Report.Precision != 1 {
		t.Errorf("precision = %d, want 1", cfg.Report.Precision)
	}
}

func TestRunFuncs_JSONReportsAbsolutePath(t *testing.T) {
	dir := writeFixture(t)
	t.Chdir(dir)

	var stdout bytes.Buffer
	err := runFuncs(funcsParams{
		flags:         defaultFlags(),
		storePath:     ".",
		file:          "abs.go",
		format:        "json",
		crapThreshold: 15,
		stdout:        &stdout,
	})
	if err != nil {
		t.Fatal(err)
	}

	var parsed report.FuncsReport
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(parsed.File) || filepath.Base(parsed.File) != "abs.go" {
		t.Errorf("file = %q, want an absolute path to abs.go", parsed.File)
	}
}
