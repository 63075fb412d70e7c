// Package loader wraps go/packages to answer questions about the
// package that owns a source directory.
package loader

import (
	"fmt"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode is the minimum set of flags needed to map a directory to
// its import path. No syntax or type information is loaded.
const LoadMode = packages.NeedName | packages.NeedFiles

// Package describes the package found in a directory.
type Package struct {
	// Name is the package name (e.g. "coverage").
	Name string

	// PkgPath is the full import path.
	PkgPath string

	// GoFiles lists the absolute paths of the package's Go files.
	GoFiles []string
}

// PackageInDir loads the package rooted at dir and returns its
// import path. The go command runs with dir as its working
// directory; the caller's working directory is not touched.
func PackageInDir(dir string) (*Package, error) {
	cfg := &packages.Config{
		Mode:  LoadMode,
		Dir:   dir,
		Tests: false,
	}

	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("loading package in %q: %w", dir, err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no package found in %q", dir)
	}

	pkg := pkgs[0]

	var errs []string
	for _, e := range pkg.Errors {
		errs = append(errs, e.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package in %q has errors:\n  %s",
			dir, strings.Join(errs, "\n  "))
	}
	if pkg.PkgPath == "" {
		return nil, fmt.Errorf("package in %q has no import path", dir)
	}

	return &Package{
		Name:    pkg.Name,
		PkgPath: pkg.PkgPath,
		GoFiles: pkg.GoFiles,
	}, nil
}
