package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/covlines/internal/coverage"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	NextMiss key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextMiss, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.NextMiss, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	NextMiss: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next uncovered")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	coveredStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	partialStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	uncoveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Gutter marks, one per line state.
const (
	markCovered   = "+"
	markPartial   = "~"
	markUncovered = "-"
	markNone      = " "
)

// viewModel is the Bubble Tea model for browsing a source file with
// its coverage gutter.
type viewModel struct {
	result   coverage.Result
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	header   string
	content  string

	// misses holds the 0-based content rows of uncovered and
	// partial lines, in order, for the "next uncovered" key.
	misses []int
}

func newViewModel(res coverage.Result, src string, precision int) viewModel {
	return viewModel{
		result:  res,
		help:    help.New(),
		keys:    defaultKeyMap,
		header:  renderViewHeader(res, precision),
		content: renderViewContent(res, src),
		misses:  missRows(res),
	}
}

func renderViewHeader(res coverage.Result, precision int) string {
	title := titleStyle.Render(res.File)
	stats := statusStyle.Render(fmt.Sprintf("%s of %d statements  %s %d  %s %d  %s %d",
		res.PercentString(precision), res.Statements,
		coveredStyle.Render(markCovered), len(res.Covered),
		partialStyle.Render(markPartial), len(res.Partial),
		uncoveredStyle.Render(markUncovered), len(res.Uncovered)))
	if !res.Measured {
		stats += statusStyle.Render("  (not measured)")
	}
	return title + "\n" + stats
}

// renderViewContent prefixes every source line with its number and a
// colored coverage mark.
func renderViewContent(res coverage.Result, src string) string {
	marks := make(map[int]string)
	for _, l := range res.Covered {
		marks[l] = coveredStyle.Render(markCovered)
	}
	for _, l := range res.Partial {
		marks[l] = partialStyle.Render(markPartial)
	}
	for _, l := range res.Uncovered {
		marks[l] = uncoveredStyle.Render(markUncovered)
	}

	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))

	var sb strings.Builder
	for i, text := range lines {
		n := i + 1
		mark, ok := marks[n]
		if !ok {
			mark = markNone
		}
		sb.WriteString(statusStyle.Render(fmt.Sprintf("%*d", width, n)))
		sb.WriteString(" ")
		sb.WriteString(mark)
		sb.WriteString(" ")
		sb.WriteString(strings.ReplaceAll(text, "\t", "    "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// missRows returns the sorted 0-based rows of lines that need
// attention.
func missRows(res coverage.Result) []int {
	rows := make([]int, 0, len(res.Uncovered)+len(res.Partial))
	i, j := 0, 0
	for i < len(res.Uncovered) || j < len(res.Partial) {
		switch {
		case j >= len(res.Partial) || (i < len(res.Uncovered) && res.Uncovered[i] < res.Partial[j]):
			rows = append(rows, res.Uncovered[i]-1)
			i++
		default:
			rows = append(rows, res.Partial[j]-1)
			j++
		}
	}
	return rows
}

// nextMiss returns the first miss row below offset, wrapping to the
// first one. ok is false when there are no misses.
func nextMiss(misses []int, offset int) (int, bool) {
	if len(misses) == 0 {
		return 0, false
	}
	for _, row := range misses {
		if row > offset {
			return row, true
		}
	}
	return misses[0], true
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.header) + 1
		footerHeight := 2
		height := max(0, msg.Height-headerHeight-footerHeight)

		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.NextMiss):
			if row, ok := nextMiss(m.misses, m.viewport.YOffset); ok {
				m.viewport.SetYOffset(row)
			}
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m viewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.header + "\n\n" + m.viewport.View() + "\n" + footer
}

// runInteractiveView launches the Bubble Tea TUI for browsing a
// source file with its coverage.
func runInteractiveView(res coverage.Result, src string, precision int) error {
	model := newViewModel(res, src, precision)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
