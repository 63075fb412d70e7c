// Package config loads covlines settings from a .covlines.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/unbound-force/covlines/internal/coverage"
)

// FileName is the config file looked up in the working directory
// when no explicit path is given.
const FileName = ".covlines.yaml"

// MaxPrecision bounds report.precision.
const MaxPrecision = 4

// Config is the top-level configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Report ReportConfig `yaml:"report"`
}

// StoreConfig controls how coverage stores are located and read.
type StoreConfig struct {
	// ProfileNames are probed, in order, inside a store directory.
	ProfileNames []string `yaml:"profile_names"`

	// Missing is the missing-file policy: auto, empty or error.
	Missing string `yaml:"missing"`

	// GoCommand is the go binary used for covdata directories.
	GoCommand string `yaml:"go_command"`
}

// ReportConfig controls output rendering.
type ReportConfig struct {
	// Precision is the number of decimals in percentages.
	Precision int `yaml:"precision"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	names := make([]string, len(coverage.DefaultProfileNames))
	copy(names, coverage.DefaultProfileNames)
	return &Config{
		Store: StoreConfig{
			ProfileNames: names,
			Missing:      string(coverage.MissingAuto),
			GoCommand:    "go",
		},
		Report: ReportConfig{
			Precision: 1,
		},
	}
}

// Load reads the config at path over the defaults. An empty path
// means FileName in the working directory, and a missing default
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	switch coverage.MissingPolicy(c.Store.Missing) {
	case coverage.MissingAuto, coverage.MissingEmpty, coverage.MissingError:
	default:
		return fmt.Errorf("invalid store.missing %q: must be auto, empty or error", c.Store.Missing)
	}
	if len(c.Store.ProfileNames) == 0 {
		return errors.New("store.profile_names must not be empty")
	}
	for _, name := range c.Store.ProfileNames {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("invalid store.profile_names entry %q: must be a bare file name", name)
		}
	}
	if c.Report.Precision < 0 || c.Report.Precision > MaxPrecision {
		return fmt.Errorf("invalid report.precision %d: must be in [0, %d]", c.Report.Precision, MaxPrecision)
	}
	return nil
}

// CoverageOptions converts the store settings to coverage.Options.
func (c *Config) CoverageOptions() coverage.Options {
	return coverage.Options{
		ProfileNames: c.Store.ProfileNames,
		Missing:      coverage.MissingPolicy(c.Store.Missing),
		GoCommand:    c.Store.GoCommand,
	}
}
