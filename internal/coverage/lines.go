package coverage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/tools/cover"
)

// Lines returns the coverage of sourceFile. The path is made
// absolute before the lookup, and the store is loaded afresh.
func (s *Store) Lines(sourceFile string) (Result, error) {
	abs, err := filepath.Abs(sourceFile)
	if err != nil {
		return Result{}, fmt.Errorf("resolving source path %q: %w", sourceFile, err)
	}

	profiles, err := s.be.load()
	if err != nil {
		return Result{}, err
	}

	profile := s.lookup(profiles, abs)
	if profile == nil {
		if s.missingIsError() {
			return Result{}, fmt.Errorf("%s: %w", abs, ErrFileNotMeasured)
		}
		s.logger.Debug("file not in store, reporting as unmeasured", "file", abs)
		return unmeasuredResult(abs)
	}

	src, err := readSourceLines(abs)
	if err != nil {
		s.logger.Debug("source unreadable, attributing whole block spans", "file", abs, "err", err)
	}
	return measuredResult(abs, profile, src), nil
}

// Files lists every file the store has data for, sorted by name.
func (s *Store) Files() ([]FileSummary, error) {
	profiles, err := s.be.load()
	if err != nil {
		return nil, err
	}

	files := make([]FileSummary, 0, len(profiles))
	for _, p := range profiles {
		covered, total := statementCounts(p)
		files = append(files, FileSummary{
			Name:              p.FileName,
			Statements:        total,
			CoveredStatements: covered,
			Percentage:        percent(covered, total),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (s *Store) missingIsError() bool {
	switch s.missing {
	case MissingError:
		return true
	case MissingEmpty:
		return false
	default:
		return s.be.strict()
	}
}

// measuredResult classifies the lines of one profile. src holds the
// source text (one string per line) and may be nil.
func measuredResult(abs string, profile *cover.Profile, src []string) Result {
	covered, uncovered, partial := classifyLines(profile, src)
	coveredStmts, total := statementCounts(profile)
	return Result{
		File:              abs,
		Measured:          true,
		Covered:           covered,
		Uncovered:         uncovered,
		Partial:           partial,
		Statements:        total,
		CoveredStatements: coveredStmts,
		Percentage:        percent(coveredStmts, total),
	}
}

// lineState records whether any executed and any unexecuted block
// touched a line.
type lineState struct {
	hit  bool
	miss bool
}

// classifyLines splits the lines spanned by a profile's blocks into
// covered, uncovered and partial sets. Blocks without statements are
// ignored. The returned slices are sorted and never nil.
func classifyLines(profile *cover.Profile, src []string) (covered, uncovered, partial []int) {
	states := make(map[int]*lineState)
	for _, b := range profile.Blocks {
		if b.NumStmt == 0 {
			continue
		}
		for line := b.StartLine; line <= b.EndLine; line++ {
			if src != nil && !spanHasCode(src, b, line) {
				continue
			}
			st, ok := states[line]
			if !ok {
				st = &lineState{}
				states[line] = st
			}
			if b.Count > 0 {
				st.hit = true
			} else {
				st.miss = true
			}
		}
	}

	covered, uncovered, partial = []int{}, []int{}, []int{}
	for line, st := range states {
		switch {
		case st.hit && st.miss:
			partial = append(partial, line)
		case st.hit:
			covered = append(covered, line)
		default:
			uncovered = append(uncovered, line)
		}
	}
	sort.Ints(covered)
	sort.Ints(uncovered)
	sort.Ints(partial)
	return covered, uncovered, partial
}

// spanHasCode reports whether the columns of block b on the given
// line contain anything but whitespace, brackets or a line comment.
// Lines outside src count as code.
func spanHasCode(src []string, b cover.ProfileBlock, line int) bool {
	if line < 1 || line > len(src) {
		return true
	}
	text := src[line-1]

	start, end := 0, len(text)
	if line == b.StartLine {
		start = b.StartCol - 1
	}
	if line == b.EndLine {
		end = b.EndCol - 1
	}
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))

	seg := strings.TrimFunc(text[start:end], func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("{}()", r)
	})
	return seg != "" && !strings.HasPrefix(seg, "//")
}

// statementCounts sums covered and total statements of a profile.
func statementCounts(profile *cover.Profile) (covered, total int) {
	for _, b := range profile.Blocks {
		total += b.NumStmt
		if b.Count > 0 {
			covered += b.NumStmt
		}
	}
	return covered, total
}

// readSourceLines reads a file and splits it into lines.
func readSourceLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
