package coverage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"golang.org/x/tools/cover"
)

// profileBackend reads a text cover profile directly.
type profileBackend struct {
	path string
}

func (b *profileBackend) kind() Kind       { return KindProfile }
func (b *profileBackend) location() string { return b.path }
func (b *profileBackend) strict() bool     { return true }

func (b *profileBackend) load() ([]*cover.Profile, error) {
	profiles, err := cover.ParseProfiles(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrStoreNotFound, err)
		}
		return nil, fmt.Errorf("parsing cover profile %s: %w", b.path, err)
	}
	return profiles, nil
}

// covdataBackend converts a GOCOVERDIR directory to a text profile
// with "go tool covdata textfmt" and parses that.
type covdataBackend struct {
	dir   string
	goCmd string
}

func (b *covdataBackend) kind() Kind       { return KindCovdata }
func (b *covdataBackend) location() string { return b.dir }
func (b *covdataBackend) strict() bool     { return false }

func (b *covdataBackend) load() ([]*cover.Profile, error) {
	if !hasCovdata(b.dir) {
		return nil, fmt.Errorf("%w: no covmeta files in %s", ErrStoreNotFound, b.dir)
	}

	tmpFile, err := os.CreateTemp("", "covlines-*.out")
	if err != nil {
		return nil, fmt.Errorf("creating temp profile: %w", err)
	}
	profilePath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(profilePath)

	// Both paths are passed explicitly; the go command does not
	// depend on the working directory here.
	cmd := exec.Command(b.goCmd, "tool", "covdata", "textfmt",
		"-i="+b.dir, "-o="+profilePath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("go tool covdata failed: %w\n%s", err, string(output))
	}

	profiles, err := cover.ParseProfiles(profilePath)
	if err != nil {
		return nil, fmt.Errorf("parsing converted covdata from %s: %w", b.dir, err)
	}
	return profiles, nil
}
