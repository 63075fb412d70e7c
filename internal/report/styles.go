package report

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== file.go ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// Covered, Partial and Uncovered color line sets and gutter marks.
	Covered   lipgloss.Style
	Partial   lipgloss.Style
	Uncovered lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// CRAPBad styles CRAP scores at or above threshold.
	CRAPBad lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		Covered:   lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		Partial:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Uncovered: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		CRAPBad: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(11),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// CoverageStyle picks a style for a percentage: green from 80%,
// yellow from 50%, red below.
func (s Styles) CoverageStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return s.Covered
	case pct >= 50:
		return s.Partial
	default:
		return s.Uncovered
	}
}
