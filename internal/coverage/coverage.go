// Package coverage reads per-line coverage for a single Go source
// file out of a coverage-data store.
//
// A store is either a text cover profile written by
// "go test -coverprofile", or a GOCOVERDIR directory of binary
// covdata files written by a binary built with "go build -cover".
// Both are reduced to golang.org/x/tools/cover profiles before the
// lines of the requested file are classified as covered, uncovered
// or partially covered.
package coverage

import (
	"errors"
	"strconv"
)

// Sentinel errors returned (wrapped) by Open and Store methods.
var (
	// ErrStoreNotFound means the store path holds no readable
	// coverage data.
	ErrStoreNotFound = errors.New("coverage store not found")

	// ErrFileNotMeasured means the store has no blocks for the
	// requested source file.
	ErrFileNotMeasured = errors.New("file not measured")
)

// Result is the coverage of one source file.
type Result struct {
	// File is the absolute path the lookup was made with.
	File string `json:"file"`

	// Measured reports whether the store had data for File.
	Measured bool `json:"measured"`

	// Covered lists lines where every instrumented block executed.
	Covered []int `json:"covered"`

	// Uncovered lists lines where no instrumented block executed.
	Uncovered []int `json:"uncovered"`

	// Partial lists lines touched by both executed and unexecuted
	// blocks, such as an if statement whose body never ran.
	Partial []int `json:"partial"`

	// Statements is the number of instrumented statements.
	Statements int `json:"statements"`

	// CoveredStatements is the number of statements that executed.
	CoveredStatements int `json:"covered_statements"`

	// Percentage is statement coverage (0-100), computed the same
	// way "go tool cover -func" does.
	Percentage float64 `json:"percentage"`
}

// PercentString renders Percentage with the given number of
// decimal places, e.g. "50.0%".
func (r Result) PercentString(precision int) string {
	return FormatPercent(r.Percentage, precision)
}

// FileSummary is the statement coverage of one measured file.
type FileSummary struct {
	// Name is the file name as recorded in the store (usually an
	// import-path-relative name such as "example.com/pkg/file.go").
	Name string `json:"name"`

	Statements        int     `json:"statements"`
	CoveredStatements int     `json:"covered_statements"`
	Percentage        float64 `json:"percentage"`
}

// FormatPercent renders a percentage with precision decimal places.
func FormatPercent(pct float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(pct, 'f', precision, 64) + "%"
}

// GetCoverageLines opens the store at storePath with default
// options and returns the coverage of sourceFile. Each call loads
// the store afresh.
func GetCoverageLines(storePath, sourceFile string) (Result, error) {
	s, err := Open(storePath, DefaultOptions())
	if err != nil {
		return Result{}, err
	}
	return s.Lines(sourceFile)
}

// percent computes 100*covered/total, returning 0 for an empty
// total.
func percent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100.0 * float64(covered) / float64(total)
}
