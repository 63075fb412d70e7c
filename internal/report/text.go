package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/covlines/internal/coverage"
)

// WriteLinesText writes one file's coverage as human-readable styled
// text. Line sets are folded into ranges ("1-3, 5, 7").
func WriteLinesText(w io.Writer, res coverage.Result, precision int) error {
	s := DefaultStyles()

	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", res.File)))
	if !res.Measured {
		fmt.Fprintln(w, s.Muted.Render("    Not measured: no coverage data for this file."))
	}

	pct := s.CoverageStyle(res.Percentage).Render(res.PercentString(precision))
	fmt.Fprintf(w, "    %s %s %s\n",
		s.SummaryLabel.Render("Coverage:"), pct,
		s.Muted.Render(fmt.Sprintf("(%d/%d statements)", res.CoveredStatements, res.Statements)))

	for _, set := range []struct {
		label string
		lines []int
		style lipgloss.Style
	}{
		{"Covered:", res.Covered, s.Covered},
		{"Partial:", res.Partial, s.Partial},
		{"Uncovered:", res.Uncovered, s.Uncovered},
	} {
		text := FormatRanges(set.lines)
		if text == "" {
			text = s.Muted.Render("none")
		} else {
			text = set.style.Render(text)
		}
		fmt.Fprintf(w, "    %s %s\n", s.SummaryLabel.Render(set.label), text)
	}
	return nil
}

// WriteFilesText writes the measured files of a store as a table.
func WriteFilesText(w io.Writer, files []coverage.FileSummary, precision int) error {
	s := DefaultStyles()

	if len(files) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No files measured."))
		return nil
	}

	var covered, total int
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		covered += f.CoveredStatements
		total += f.Statements
		rows = append(rows, []string{
			coverage.FormatPercent(f.Percentage, precision),
			fmt.Sprintf("%d/%d", f.CoveredStatements, f.Statements),
			f.Name,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 0 && row >= 0 && row < len(files) {
				return s.CoverageStyle(files[row].Percentage)
			}
			return s.TableCell
		}).
		Headers("COVERAGE", "STMTS", "FILE").
		Rows(rows...)

	fmt.Fprintln(w, t)

	pct := 0.0
	if total > 0 {
		pct = 100.0 * float64(covered) / float64(total)
	}
	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d file(s), %s of statements", len(files), coverage.FormatPercent(pct, precision))))
	return nil
}

// WriteFuncsText writes per-function coverage as a table. Functions
// whose CRAP score reaches crapThreshold are flagged with "*".
func WriteFuncsText(w io.Writer, funcs []coverage.FuncCoverage, precision int, crapThreshold float64) error {
	s := DefaultStyles()

	if len(funcs) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No functions found."))
		return nil
	}

	rows := make([][]string, 0, len(funcs))
	for _, fn := range funcs {
		marker := ""
		if fn.CRAP >= crapThreshold {
			marker = " *"
		}
		rows = append(rows, []string{
			coverage.FormatPercent(fn.Percentage, precision),
			strconv.Itoa(fn.Complexity),
			fmt.Sprintf("%.1f%s", fn.CRAP, marker),
			fn.Name,
			fmt.Sprintf("%d-%d", fn.StartLine, fn.EndLine),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if row < 0 || row >= len(funcs) {
				return s.TableCell
			}
			switch col {
			case 0:
				return s.CoverageStyle(funcs[row].Percentage)
			case 2:
				if funcs[row].CRAP >= crapThreshold {
					return s.CRAPBad
				}
			}
			return s.TableCell
		}).
		Headers("COVERAGE", "COMPLEXITY", "CRAP", "FUNCTION", "LINES").
		Rows(rows...)

	fmt.Fprintln(w, t)
	return nil
}

// FormatRanges folds sorted line numbers into comma-separated
// ranges, e.g. [1 2 3 5 7 8] -> "1-3, 5, 7-8".
func FormatRanges(lines []int) string {
	if len(lines) == 0 {
		return ""
	}

	var parts []string
	start, prev := lines[0], lines[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, line := range lines[1:] {
		if line == prev+1 {
			prev = line
			continue
		}
		flush()
		start, prev = line, line
	}
	flush()
	return strings.Join(parts, ", ")
}
