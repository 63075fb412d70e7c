package coverage

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/cover"

	"github.com/unbound-force/covlines/internal/loader"
)

// lookup finds the profile recorded for the absolute source path.
// Profiles name files by import path ("example.com/pkg/file.go") or,
// less often, by absolute path. Candidates are tried from cheapest
// to most expensive.
func (s *Store) lookup(profiles []*cover.Profile, abs string) *cover.Profile {
	byName := make(map[string]*cover.Profile, len(profiles))
	for _, p := range profiles {
		byName[p.FileName] = p
	}

	for _, key := range []string{abs, filepath.ToSlash(abs)} {
		if p, ok := byName[key]; ok {
			return p
		}
	}

	if key, ok := moduleKey(abs); ok {
		if p, found := byName[key]; found {
			s.logger.Debug("matched file by module path", "key", key)
			return p
		}
	} else if key, ok := s.packageKey(abs); ok {
		if p, found := byName[key]; found {
			s.logger.Debug("matched file by package path", "key", key)
			return p
		}
	}

	return suffixMatch(profiles, abs)
}

// moduleKey builds "<module path>/<path below go.mod>" for a file
// inside a Go module. ok is false when no go.mod is found above the
// file.
func moduleKey(abs string) (string, bool) {
	dir := filepath.Dir(abs)
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", false
			}
			rel, err := filepath.Rel(dir, abs)
			if err != nil {
				return "", false
			}
			return path.Join(modPath, filepath.ToSlash(rel)), true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// packageKey asks the go command for the import path of the file's
// directory. Used for GOPATH-style layouts without a go.mod.
func (s *Store) packageKey(abs string) (string, bool) {
	dir := filepath.Dir(abs)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", false
	}
	pkg, err := loader.PackageInDir(dir)
	if err != nil {
		s.logger.Debug("no package for directory", "dir", dir, "err", err)
		return "", false
	}
	return pkg.PkgPath + "/" + filepath.Base(abs), true
}

// suffixMatch returns the single profile whose file name is a
// slash-delimited suffix of abs, or nil when there is none or more
// than one.
func suffixMatch(profiles []*cover.Profile, abs string) *cover.Profile {
	target := filepath.ToSlash(abs)
	var match *cover.Profile
	for _, p := range profiles {
		name := strings.TrimPrefix(filepath.ToSlash(p.FileName), "./")
		if name == "" {
			continue
		}
		if target == name || strings.HasSuffix(target, "/"+name) {
			if match != nil {
				return nil
			}
			match = p
		}
	}
	return match
}
