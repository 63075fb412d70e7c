package coverage

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"path/filepath"

	"github.com/fzipp/gocyclo"
	"golang.org/x/tools/cover"
)

// FuncCoverage holds the coverage of a single function.
type FuncCoverage struct {
	// Name is the function name (e.g., "Save" or "(*Store).Save").
	Name string `json:"name"`

	// StartLine is the function declaration start line.
	StartLine int `json:"start_line"`

	// EndLine is the function body end line.
	EndLine int `json:"end_line"`

	// Complexity is the cyclomatic complexity.
	Complexity int `json:"complexity"`

	// CoveredStmts is the number of statements covered by tests.
	CoveredStmts int `json:"covered_stmts"`

	// TotalStmts is the total number of statements in the function.
	TotalStmts int `json:"total_stmts"`

	// Percentage is the coverage percentage (0-100).
	Percentage float64 `json:"percentage"`

	// CRAP is the Change Risk Anti-Patterns score.
	CRAP float64 `json:"crap"`
}

// Funcs returns per-function coverage for sourceFile in source
// order. The missing-file policy applies as in Lines; an unmeasured
// file reports every function at 0%.
func (s *Store) Funcs(sourceFile string) ([]FuncCoverage, error) {
	abs, err := filepath.Abs(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("resolving source path %q: %w", sourceFile, err)
	}

	profiles, err := s.be.load()
	if err != nil {
		return nil, err
	}

	profile := s.lookup(profiles, abs)
	if profile == nil {
		if s.missingIsError() {
			return nil, fmt.Errorf("%s: %w", abs, ErrFileNotMeasured)
		}
		profile = &cover.Profile{FileName: abs}
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, abs, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", abs, err)
	}

	complexity := make(map[int]int)
	for _, st := range gocyclo.AnalyzeASTFile(f, fset, nil) {
		complexity[st.Pos.Line] = st.Complexity
	}

	funcs := findFunctions(fset, f)
	results := make([]FuncCoverage, 0, len(funcs))
	for _, fn := range funcs {
		covered, total := funcCoverage(fn, profile)
		pct := percent(covered, total)
		comp := complexity[fn.startLine]
		if comp == 0 {
			comp = 1
		}
		results = append(results, FuncCoverage{
			Name:         fn.name,
			StartLine:    fn.startLine,
			EndLine:      fn.endLine,
			Complexity:   comp,
			CoveredStmts: covered,
			TotalStmts:   total,
			Percentage:   pct,
			CRAP:         CRAP(comp, pct),
		})
	}
	return results, nil
}

// CRAP computes comp^2 * (1 - cov/100)^3 + comp.
// comp is cyclomatic complexity (>= 1).
// coveragePct is statement coverage as a percentage (0-100).
func CRAP(complexity int, coveragePct float64) float64 {
	comp := float64(complexity)
	uncov := 1.0 - coveragePct/100.0
	return comp*comp*math.Pow(uncov, 3) + comp
}

// funcExtent describes a function's source position.
type funcExtent struct {
	name      string
	startLine int
	startCol  int
	endLine   int
	endCol    int
}

// findFunctions returns the extent of each function declaration
// with a body.
func findFunctions(fset *token.FileSet, f *ast.File) []funcExtent {
	var funcs []funcExtent
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		start := fset.Position(fn.Pos())
		end := fset.Position(fn.End())

		name := fn.Name.Name
		if fn.Recv != nil && fn.Recv.NumFields() > 0 {
			name = "(" + recvTypeString(fn.Recv.List[0].Type) + ")." + fn.Name.Name
		}

		funcs = append(funcs, funcExtent{
			name:      name,
			startLine: start.Line,
			startCol:  start.Column,
			endLine:   end.Line,
			endCol:    end.Column,
		})
	}
	return funcs
}

// recvTypeString extracts the receiver type as a string.
func recvTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + recvTypeString(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return recvTypeString(t.X)
	case *ast.IndexListExpr:
		return recvTypeString(t.X)
	default:
		return "?"
	}
}

// funcCoverage counts the covered and total statements of the
// blocks overlapping fn.
func funcCoverage(fn funcExtent, profile *cover.Profile) (covered, total int) {
	for _, b := range profile.Blocks {
		if b.StartLine > fn.endLine {
			break
		}
		if b.StartLine == fn.endLine && b.StartCol >= fn.endCol {
			break
		}
		if b.EndLine < fn.startLine {
			continue
		}
		if b.EndLine == fn.startLine && b.EndCol <= fn.startCol {
			continue
		}
		total += b.NumStmt
		if b.Count > 0 {
			covered += b.NumStmt
		}
	}
	return covered, total
}
