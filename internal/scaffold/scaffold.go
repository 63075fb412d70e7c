// Package scaffold writes a starter .covlines.yaml into a project
// directory.
package scaffold

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

//go:embed assets/covlines.yaml
var configTemplate []byte

// FileName is the file written by Run.
const FileName = ".covlines.yaml"

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the directory to write into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites an existing file when true.
	Force bool

	// Version is embedded in the marker comment. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Outcome is what Run did with the config file.
type Outcome string

const (
	Created     Outcome = "created"
	Skipped     Outcome = "skipped"
	Overwritten Outcome = "overwritten"
)

// Result reports what the scaffold operation did.
type Result struct {
	// Path is the config file location.
	Path string

	Outcome Outcome
}

// versionMarker returns the comment prepended to the scaffolded file.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by covlines %s\n", version)
}

// Run writes the starter config into opts.TargetDir. An existing file
// is skipped unless opts.Force is set.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if _, err := os.Stat(filepath.Join(opts.TargetDir, "go.mod")); os.IsNotExist(err) {
		fmt.Fprintln(opts.Stdout, "Warning: no go.mod found in target directory.")
		fmt.Fprintln(opts.Stdout, "Profiles name files by import path, so covlines works best in a Go module root.")
		fmt.Fprintln(opts.Stdout)
	}

	outPath := filepath.Join(opts.TargetDir, FileName)
	result := &Result{Path: outPath}

	_, statErr := os.Stat(outPath)
	exists := statErr == nil
	if exists && !opts.Force {
		result.Outcome = Skipped
		printSummary(opts.Stdout, result)
		return result, nil
	}

	out := append([]byte(versionMarker(opts.Version)), configTemplate...)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", FileName, err)
	}

	result.Outcome = Created
	if exists {
		result.Outcome = Overwritten
	}
	printSummary(opts.Stdout, result)
	return result, nil
}

func printSummary(w io.Writer, r *Result) {
	switch r.Outcome {
	case Skipped:
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", FileName)
		fmt.Fprintln(w, "Use --force to overwrite.")
	default:
		fmt.Fprintf(w, "  %s: %s\n", r.Outcome, FileName)
	}
}
