// Package report provides output formatters for covlines results in
// JSON and human-readable text formats.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/covlines/internal/coverage"
)

// Version is the JSON output format version.
const Version = "0.1.0"

// LinesReport is the JSON output of the lines command.
type LinesReport struct {
	Version     string          `json:"version"`
	Coverage    coverage.Result `json:"coverage"`
	PercentText string          `json:"percent_text"`
}

// FilesReport is the JSON output of the files command.
type FilesReport struct {
	Version string                 `json:"version"`
	Store   string                 `json:"store"`
	Kind    coverage.Kind          `json:"kind"`
	Files   []coverage.FileSummary `json:"files"`
}

// FuncsReport is the JSON output of the funcs command.
type FuncsReport struct {
	Version   string                  `json:"version"`
	File      string                  `json:"file"`
	Functions []coverage.FuncCoverage `json:"functions"`
}

// WriteLinesJSON writes one file's coverage as formatted JSON.
func WriteLinesJSON(w io.Writer, res coverage.Result, precision int) error {
	return encode(w, LinesReport{
		Version:     Version,
		Coverage:    res,
		PercentText: res.PercentString(precision),
	})
}

// WriteFilesJSON writes the measured-file listing as formatted JSON.
func WriteFilesJSON(w io.Writer, store string, kind coverage.Kind, files []coverage.FileSummary) error {
	if files == nil {
		files = []coverage.FileSummary{}
	}
	return encode(w, FilesReport{
		Version: Version,
		Store:   store,
		Kind:    kind,
		Files:   files,
	})
}

// WriteFuncsJSON writes per-function coverage as formatted JSON.
func WriteFuncsJSON(w io.Writer, file string, funcs []coverage.FuncCoverage) error {
	if funcs == nil {
		funcs = []coverage.FuncCoverage{}
	}
	return encode(w, FuncsReport{
		Version:   Version,
		File:      file,
		Functions: funcs,
	})
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
