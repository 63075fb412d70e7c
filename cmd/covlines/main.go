package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/covlines/internal/config"
	"github.com/unbound-force/covlines/internal/coverage"
	"github.com/unbound-force/covlines/internal/report"
	"github.com/unbound-force/covlines/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	precision  int
	missing    string
	verbose    bool
}

func main() {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "covlines",
		Short: "covlines: per-line Go coverage for editors",
		Long: `covlines reads a Go coverage profile or GOCOVERDIR directory
and reports which lines of a source file are covered, uncovered or
partially covered, for editor plugins that highlight coverage.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				logger.SetLevel(charmlog.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"path to config file (default: ./"+config.FileName+" if present)")
	root.PersistentFlags().IntVar(&flags.precision, "precision", -1,
		"decimal places in percentages (default: from config)")
	root.PersistentFlags().StringVar(&flags.missing, "missing", "",
		"missing-file policy: auto, empty or error (default: from config)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(newLinesCmd(&flags))
	root.AddCommand(newFilesCmd(&flags))
	root.AddCommand(newFuncsCmd(&flags))
	root.AddCommand(newViewCmd(&flags))
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies CLI overrides.
// precision -1 and an empty missing policy keep the configured
// values.
func loadConfig(path string, precision int, missing string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if precision >= 0 {
		cfg.Report.Precision = precision
	}
	if missing != "" {
		cfg.Store.Missing = missing
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// openStore loads the config and opens the coverage store with it.
func openStore(flags *globalFlags, storePath string) (*coverage.Store, *config.Config, error) {
	cfg, err := loadConfig(flags.configPath, flags.precision, flags.missing)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.CoverageOptions()
	opts.Logger = logger
	store, err := coverage.Open(storePath, opts)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
	return nil
}

// linesParams holds the parsed flags for the lines command.
type linesParams struct {
	flags     *globalFlags
	storePath string
	file      string
	format    string
	stdout    io.Writer
}

// runLines is the extracted, testable body of the lines command.
func runLines(p linesParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}

	store, cfg, err := openStore(p.flags, p.storePath)
	if err != nil {
		return err
	}

	res, err := store.Lines(p.file)
	if err != nil {
		return err
	}
	logger.Debug("coverage loaded", "file", res.File,
		"covered", len(res.Covered), "uncovered", len(res.Uncovered), "partial", len(res.Partial))

	switch p.format {
	case "json":
		return report.WriteLinesJSON(p.stdout, res, cfg.Report.Precision)
	default:
		return report.WriteLinesText(p.stdout, res, cfg.Report.Precision)
	}
}

func newLinesCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "lines <store> <file>",
		Short: "Report covered, uncovered and partial lines of a file",
		Long: `Report the coverage of one source file. <store> is a cover
profile, a GOCOVERDIR directory, or a directory holding a profile
under a conventional name (coverage.out, cover.out, ...).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLines(linesParams{
				flags:     flags,
				storePath: args[0],
				file:      args[1],
				format:    format,
				stdout:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}

// filesParams holds the parsed flags for the files command.
type filesParams struct {
	flags     *globalFlags
	storePath string
	format    string
	stdout    io.Writer
}

// runFiles is the extracted, testable body of the files command.
func runFiles(p filesParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}

	store, cfg, err := openStore(p.flags, p.storePath)
	if err != nil {
		return err
	}

	files, err := store.Files()
	if err != nil {
		return err
	}
	logger.Debug("files listed", "store", store.Path(), "kind", store.Kind(), "files", len(files))

	switch p.format {
	case "json":
		return report.WriteFilesJSON(p.stdout, store.Path(), store.Kind(), files)
	default:
		return report.WriteFilesText(p.stdout, files, cfg.Report.Precision)
	}
}

func newFilesCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "files <store>",
		Short: "List the files a coverage store has data for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(filesParams{
				flags:     flags,
				storePath: args[0],
				format:    format,
				stdout:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}

// funcsParams holds the parsed flags for the funcs command.
type funcsParams struct {
	flags         *globalFlags
	storePath     string
	file          string
	format        string
	crapThreshold float64
	stdout        io.Writer
}

// runFuncs is the extracted, testable body of the funcs command.
func runFuncs(p funcsParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	if p.crapThreshold <= 0 {
		return fmt.Errorf("invalid crap threshold %v: must be positive", p.crapThreshold)
	}

	store, cfg, err := openStore(p.flags, p.storePath)
	if err != nil {
		return err
	}

	file, err := filepath.Abs(p.file)
	if err != nil {
		return fmt.Errorf("resolving source path %q: %w", p.file, err)
	}

	funcs, err := store.Funcs(file)
	if err != nil {
		return err
	}

	switch p.format {
	case "json":
		return report.WriteFuncsJSON(p.stdout, file, funcs)
	default:
		return report.WriteFuncsText(p.stdout, funcs, cfg.Report.Precision, p.crapThreshold)
	}
}

func newFuncsCmd(flags *globalFlags) *cobra.Command {
	var (
		format        string
		crapThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "funcs <store> <file>",
		Short: "Report per-function coverage, complexity and CRAP score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuncs(funcsParams{
				flags:         flags,
				storePath:     args[0],
				file:          args[1],
				format:        format,
				crapThreshold: crapThreshold,
				stdout:        cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().Float64Var(&crapThreshold, "crap-threshold", 15,
		"CRAP score threshold for flagging functions")

	return cmd
}

func newViewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view <store> <file>",
		Short: "Browse a source file with its coverage in the terminal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore(flags, args[0])
			if err != nil {
				return err
			}
			res, err := store.Lines(args[1])
			if err != nil {
				return err
			}
			src, err := os.ReadFile(res.File)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			return runInteractiveView(res, string(src), cfg.Report.Precision)
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for covlines lines output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of covlines lines --format=json output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

// initParams holds the parsed flags for the init command.
type initParams struct {
	targetDir string
	force     bool
	stdout    io.Writer
}

// runInit is the extracted, testable body of the init command.
func runInit(p initParams) error {
	_, err := scaffold.Run(scaffold.Options{
		TargetDir: p.targetDir,
		Force:     p.force,
		Version:   version,
		Stdout:    p.stdout,
	})
	return err
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.FileName + " to the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initParams{
				force:  force,
				stdout: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
