package coverage

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"sort"
)

// unmeasuredResult describes a file the store has no blocks for:
// nothing executed, so every statement line is uncovered. Files that
// do not parse as Go yield empty sets.
func unmeasuredResult(abs string) (Result, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return Result{}, fmt.Errorf("reading unmeasured file: %w", err)
	}

	lines, stmts := statementLines(abs, data)
	return Result{
		File:       abs,
		Measured:   false,
		Covered:    []int{},
		Uncovered:  lines,
		Partial:    []int{},
		Statements: stmts,
	}, nil
}

// statementLines returns the sorted, de-duplicated start lines of
// the statements inside function bodies, and the statement count.
// A partial AST from a file with syntax errors still contributes
// what was parsed.
func statementLines(filename string, src []byte) ([]int, int) {
	fset := token.NewFileSet()
	f, _ := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if f == nil {
		return []int{}, 0
	}

	stmts := 0
	seen := make(map[int]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		stmt, ok := n.(ast.Stmt)
		if !ok {
			return true
		}
		switch stmt.(type) {
		case *ast.BlockStmt, *ast.LabeledStmt, *ast.EmptyStmt,
			*ast.CaseClause, *ast.CommClause, *ast.BadStmt:
			return true
		}
		stmts++
		seen[fset.Position(stmt.Pos()).Line] = true
		return true
	})

	lines := make([]int, 0, len(seen))
	for line := range seen {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines, stmts
}
