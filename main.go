package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/Someblueman/archgate/internal/audit"
	"github.com/Someblueman/archgate/internal/mcpserver"
)

var version = "dev"

const (
	exitPass     = 0
	exitFindings = 1
	exitFatal    = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	configPath string
	envFile    string

	root, libraries, packages string
	maxFilePercent            float64
	maxComponentPercent       float64
	outlierThreshold          float64
	language, marker          string
	excludeDirs, excludeGlobs []string
	workers                   int
	skipUnparsable            bool
	output                    string

	jsonOut, markdown, mcp bool
	verbose, showVersion   bool
}

func newFlagSet(stderr io.Writer) (*pflag.FlagSet, *cliFlags) {
	var f cliFlags
	defaults := audit.DefaultConfig()

	fs := pflag.NewFlagSet("archgate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: archgate [options]\n\n")
		fmt.Fprintf(stderr, "archgate audits a source tree for layering, size and naming violations.\n")
		fmt.Fprintf(stderr, "Exit status is 0 when clean, 1 when findings exist and 2 on fatal errors.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "Dotenv file with ARCHGATE_* variables")
	fs.StringVarP(&f.root, "root", "r", defaults.Root, "Directory to scan")
	fs.StringVar(&f.libraries, "libraries", defaults.LibrariesRoot, "Libraries root, relative to --root")
	fs.StringVar(&f.packages, "packages", defaults.PackagesRoot, "Packages root, relative to --root")
	fs.Float64Var(&f.maxFilePercent, "max-file-percent", defaults.MaxFileStatementPercent, "Largest allowed file as a fraction of all statements")
	fs.Float64Var(&f.maxComponentPercent, "max-component-percent", defaults.MaxComponentStatementPercent, "Largest allowed component as a fraction of all statements (0 disables)")
	fs.Float64Var(&f.outlierThreshold, "outlier-threshold", defaults.OutlierStdDevThreshold, "Standard deviations above the mean that flag a component")
	fs.StringVarP(&f.language, "language", "l", defaults.Language, "Grammar: python, typescript or rust")
	fs.StringVar(&f.marker, "marker", "", "Component marker file name (default depends on language)")
	fs.StringSliceVar(&f.excludeDirs, "exclude-dir", defaults.ExcludeDirs, "Directory names never descended into")
	fs.StringSliceVar(&f.excludeGlobs, "exclude", nil, "Doublestar globs, relative to --root, to skip")
	fs.IntVarP(&f.workers, "workers", "j", 0, "Parallel parsers (0 uses GOMAXPROCS)")
	fs.BoolVar(&f.skipUnparsable, "skip-unparsable", false, "Report unparsable files instead of failing")
	fs.StringVarP(&f.output, "output", "o", defaults.SummaryPath, "Component summary JSON file (empty disables)")
	fs.BoolVar(&f.jsonOut, "json", false, "Print the full report as JSON")
	fs.BoolVar(&f.markdown, "markdown", false, "Print the report as markdown")
	fs.BoolVar(&f.mcp, "mcp", false, "Serve the audit as an MCP tool on stdio")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose logging")
	fs.BoolVarP(&f.showVersion, "version", "V", false, "Print version information")
	return fs, &f
}

// buildConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func buildConfig(fs *pflag.FlagSet, f *cliFlags, lookup func(string) (string, bool)) (audit.Config, error) {
	cfg := audit.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = audit.LoadConfigFile(f.configPath, cfg); err != nil {
			return cfg, err
		}
	}
	cfg, err := audit.ApplyEnv(cfg, lookup)
	if err != nil {
		return cfg, err
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("root", func() { cfg.Root = f.root })
	set("libraries", func() { cfg.LibrariesRoot = f.libraries })
	set("packages", func() { cfg.PackagesRoot = f.packages })
	set("max-file-percent", func() { cfg.MaxFileStatementPercent = f.maxFilePercent })
	set("max-component-percent", func() { cfg.MaxComponentStatementPercent = f.maxComponentPercent })
	set("outlier-threshold", func() { cfg.OutlierStdDevThreshold = f.outlierThreshold })
	set("language", func() { cfg.Language = f.language })
	set("marker", func() { cfg.Marker = f.marker })
	set("exclude-dir", func() { cfg.ExcludeDirs = f.excludeDirs })
	set("exclude", func() { cfg.ExcludeGlobs = f.excludeGlobs })
	set("workers", func() { cfg.Workers = f.workers })
	set("skip-unparsable", func() { cfg.SkipUnparsable = f.skipUnparsable })
	set("output", func() { cfg.SummaryPath = f.output })
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitPass
		}
		return exitFatal
	}
	if f.showVersion {
		fmt.Fprintf(stdout, "archgate version %s\n", version)
		return exitPass
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if f.envFile != "" {
		if err := audit.LoadDotEnv(f.envFile); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFatal
		}
	}
	cfg, err := buildConfig(fs, f, os.LookupEnv)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}

	if f.mcp {
		logger.Info("serving MCP on stdio", "version", version)
		if err := mcpserver.Serve(mcpserver.New(cfg, logger, version)); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFatal
		}
		return exitPass
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	report, err := audit.NewEngine(cfg, logger).Run(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}

	if cfg.SummaryPath != "" {
		if err := audit.WriteSummary(cfg.SummaryPath, report.Snapshot); err != nil {
			fmt.Fprintf(stderr, "error: write summary: %v\n", err)
			return exitFatal
		}
		logger.Debug("summary written", "path", cfg.SummaryPath)
	}

	if err := render(stdout, report, f); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}
	if !report.Passed() {
		return exitFindings
	}
	return exitPass
}

func render(w io.Writer, report *audit.Report, f *cliFlags) error {
	switch {
	case f.jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case f.markdown:
		md, err := audit.RenderMarkdown(report)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	default:
		return audit.WriteWarnings(w, report, isTerminal(w))
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
