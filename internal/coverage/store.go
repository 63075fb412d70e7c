package coverage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/tools/cover"
)

// Kind names the on-disk format a Store was opened from.
type Kind string

// Store kinds.
const (
	// KindProfile is a text cover profile ("mode: ..." header).
	KindProfile Kind = "profile"

	// KindCovdata is a GOCOVERDIR directory of covmeta/covcounters
	// files.
	KindCovdata Kind = "covdata"
)

// MissingPolicy decides what Lines and Funcs do for a file the
// store has no data for.
type MissingPolicy string

// Missing-file policies.
const (
	// MissingAuto follows the backend: covdata stores report the
	// file as unmeasured, text profiles return ErrFileNotMeasured.
	MissingAuto MissingPolicy = "auto"

	// MissingEmpty always reports the file as unmeasured.
	MissingEmpty MissingPolicy = "empty"

	// MissingError always returns ErrFileNotMeasured.
	MissingError MissingPolicy = "error"
)

// DefaultProfileNames are the file names probed, in order, when the
// store path is a directory without covdata files.
var DefaultProfileNames = []string{
	"coverage.out",
	"cover.out",
	"c.out",
	"coverage.txt",
	"profile.cov",
}

// Options configures how a store is found and read.
type Options struct {
	// ProfileNames are the profile file names probed inside a
	// store directory. Default: DefaultProfileNames.
	ProfileNames []string

	// Missing selects the missing-file policy. Default: MissingAuto.
	Missing MissingPolicy

	// GoCommand is the go binary used to convert covdata
	// directories. Default: "go".
	GoCommand string

	// Logger receives debug output. Default: discard.
	Logger *log.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		ProfileNames: DefaultProfileNames,
		Missing:      MissingAuto,
		GoCommand:    "go",
	}
}

// backend loads the raw profiles of a store. Implementations are
// chosen once, by Open.
type backend interface {
	kind() Kind
	location() string
	load() ([]*cover.Profile, error)

	// strict reports whether a missing file is an error under
	// MissingAuto.
	strict() bool
}

// Store is an opened coverage-data store. It holds no loaded data:
// every query reads the store again, so a Store stays valid while
// tests rewrite the underlying files. A Store is safe for
// concurrent use.
type Store struct {
	be      backend
	missing MissingPolicy
	logger  *log.Logger
}

// Open locates the coverage data at storePath and selects a backend
// for it. storePath may be a profile file, a covdata file, or a
// directory containing either.
func Open(storePath string, opts Options) (*Store, error) {
	if len(opts.ProfileNames) == 0 {
		opts.ProfileNames = DefaultProfileNames
	}
	if opts.Missing == "" {
		opts.Missing = MissingAuto
	}
	if opts.GoCommand == "" {
		opts.GoCommand = "go"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	abs, err := filepath.Abs(storePath)
	if err != nil {
		return nil, fmt.Errorf("resolving store path %q: %w", storePath, err)
	}

	be, err := probe(abs, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened coverage store", "kind", be.kind(), "path", be.location())

	return &Store{
		be:      be,
		missing: opts.Missing,
		logger:  logger,
	}, nil
}

// Kind reports the backend selected for the store.
func (s *Store) Kind() Kind {
	return s.be.kind()
}

// Path is the profile file or covdata directory being read.
func (s *Store) Path() string {
	return s.be.location()
}

// probe picks the backend for an absolute store path.
func probe(abs string, opts Options) (backend, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreNotFound, abs, err)
	}

	if !info.IsDir() {
		if isCovdataFile(filepath.Base(abs)) {
			return &covdataBackend{dir: filepath.Dir(abs), goCmd: opts.GoCommand}, nil
		}
		if !hasProfileHeader(abs) {
			return nil, fmt.Errorf("%w: %s is not a cover profile", ErrStoreNotFound, abs)
		}
		return &profileBackend{path: abs}, nil
	}

	if hasCovdata(abs) {
		return &covdataBackend{dir: abs, goCmd: opts.GoCommand}, nil
	}

	for _, name := range opts.ProfileNames {
		candidate := filepath.Join(abs, name)
		fi, err := os.Stat(candidate)
		if err != nil || fi.IsDir() {
			continue
		}
		if hasProfileHeader(candidate) {
			return &profileBackend{path: candidate}, nil
		}
	}

	return nil, fmt.Errorf("%w: no covdata or profile (%s) in %s",
		ErrStoreNotFound, strings.Join(opts.ProfileNames, ", "), abs)
}

// isCovdataFile matches the file names the Go runtime writes into
// GOCOVERDIR.
func isCovdataFile(name string) bool {
	return strings.HasPrefix(name, "covmeta.") || strings.HasPrefix(name, "covcounters.")
}

// hasCovdata reports whether dir holds at least one covmeta file.
// Counter files alone cannot be decoded.
func hasCovdata(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "covmeta.*"))
	return err == nil && len(matches) > 0
}

// hasProfileHeader checks the "mode: " line every text profile
// starts with.
func hasProfileHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false
	}
	return strings.HasPrefix(scanner.Text(), "mode: ")
}
