package audit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Someblueman/archgate/internal/syntax"
)

// Config drives one audit run.
type Config struct {
	Root          string `yaml:"root" json:"root"`
	LibrariesRoot string `yaml:"librariesRoot" json:"librariesRoot"`
	PackagesRoot  string `yaml:"packagesRoot" json:"packagesRoot"`

	// MaxFileStatementPercent is a fraction of the global statement count.
	MaxFileStatementPercent float64 `yaml:"maxFileStatementPercent" json:"maxFileStatementPercent"`
	// MaxComponentStatementPercent enables the component size rule when > 0.
	MaxComponentStatementPercent float64 `yaml:"maxComponentStatementPercent" json:"maxComponentStatementPercent"`
	OutlierStdDevThreshold       float64 `yaml:"outlierStdDevThreshold" json:"outlierStdDevThreshold"`

	Language       string   `yaml:"language" json:"language"`
	Marker         string   `yaml:"marker" json:"marker,omitempty"`
	ExcludeDirs    []string `yaml:"excludeDirs" json:"excludeDirs"`
	ExcludeGlobs   []string `yaml:"excludeGlobs" json:"excludeGlobs,omitempty"`
	Workers        int      `yaml:"workers" json:"workers"`
	SkipUnparsable bool     `yaml:"skipUnparsable" json:"skipUnparsable"`
	SummaryPath    string   `yaml:"summaryPath" json:"summaryPath"`
}

// DefaultConfig returns the canonical thresholds.
func DefaultConfig() Config {
	return Config{
		Root:                         ".",
		LibrariesRoot:                "libs",
		PackagesRoot:                 "packages",
		MaxFileStatementPercent:      0.1,
		MaxComponentStatementPercent: 0,
		OutlierStdDevThreshold:       3.0,
		Language:                     syntax.LanguagePython,
		ExcludeDirs:                  []string{"vendor", "node_modules", "venv", "site-packages", "build", "dist", "target"},
		SummaryPath:                  "components.json",
	}
}

// LoadConfigFile overlays the YAML file at path onto base. Fields absent
// from the file keep their base values.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, &ConfigError{Field: "config", Err: err}
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, &ConfigError{Field: "config", Err: fmt.Errorf("unmarshal %s: %w", path, err)}
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; existing variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &ConfigError{Field: "env", Err: fmt.Errorf("load %s: %w", file, err)}
		}
	}
	return nil
}

// ApplyEnv overlays ARCHGATE_* variables read through lookup.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	float := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return &ConfigError{Field: key, Err: err}
		}
		*dst = f
		return nil
	}

	str("ARCHGATE_ROOT", &cfg.Root)
	str("ARCHGATE_LIBRARIES_ROOT", &cfg.LibrariesRoot)
	str("ARCHGATE_PACKAGES_ROOT", &cfg.PackagesRoot)
	str("ARCHGATE_LANGUAGE", &cfg.Language)
	str("ARCHGATE_MARKER", &cfg.Marker)
	str("ARCHGATE_SUMMARY_PATH", &cfg.SummaryPath)
	if err := float("ARCHGATE_MAX_FILE_PERCENT", &cfg.MaxFileStatementPercent); err != nil {
		return cfg, err
	}
	if err := float("ARCHGATE_MAX_COMPONENT_PERCENT", &cfg.MaxComponentStatementPercent); err != nil {
		return cfg, err
	}
	if err := float("ARCHGATE_OUTLIER_THRESHOLD", &cfg.OutlierStdDevThreshold); err != nil {
		return cfg, err
	}
	if v, ok := lookup("ARCHGATE_WORKERS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, &ConfigError{Field: "ARCHGATE_WORKERS", Err: err}
		}
		cfg.Workers = n
	}
	if v, ok := lookup("ARCHGATE_SKIP_UNPARSABLE"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, &ConfigError{Field: "ARCHGATE_SKIP_UNPARSABLE", Err: err}
		}
		cfg.SkipUnparsable = b
	}
	return cfg, nil
}

// Validate checks the configuration without scanning.
func (c Config) Validate() error {
	_, err := c.resolve()
	return err
}

// layout is a validated Config with every path resolved.
type layout struct {
	root         string // absolute
	librariesRel string // slash path relative to root
	packagesAbs  string
	packagesRel  string
	grammar      syntax.Grammar
	marker       string
	excludeDirs  map[string]struct{}
	excludeGlobs []string
	workers      int
}

func (c Config) resolve() (layout, error) {
	var l layout

	grammar, err := syntax.Lookup(c.Language)
	if err != nil {
		return l, &ConfigError{Field: "language", Err: err}
	}
	l.grammar = grammar
	l.marker = grammar.Marker
	if c.Marker != "" {
		if strings.ContainsAny(c.Marker, `/\`) {
			return l, &ConfigError{Field: "marker", Err: fmt.Errorf("must be a file name, got %q", c.Marker)}
		}
		l.marker = c.Marker
	}

	switch {
	case c.MaxFileStatementPercent <= 0 || c.MaxFileStatementPercent > 1:
		return l, &ConfigError{Field: "maxFileStatementPercent", Err: fmt.Errorf("must be in (0, 1], got %v", c.MaxFileStatementPercent)}
	case c.MaxComponentStatementPercent < 0 || c.MaxComponentStatementPercent > 1:
		return l, &ConfigError{Field: "maxComponentStatementPercent", Err: fmt.Errorf("must be in [0, 1], got %v", c.MaxComponentStatementPercent)}
	case c.OutlierStdDevThreshold <= 0:
		return l, &ConfigError{Field: "outlierStdDevThreshold", Err: fmt.Errorf("must be positive, got %v", c.OutlierStdDevThreshold)}
	case c.Workers < 0:
		return l, &ConfigError{Field: "workers", Err: fmt.Errorf("must not be negative, got %d", c.Workers)}
	}

	for _, pattern := range c.ExcludeGlobs {
		// Matching a pattern against itself reaches every class and escape.
		if _, err := doublestar.Match(pattern, pattern); err != nil {
			return l, &ConfigError{Field: "excludeGlobs", Err: fmt.Errorf("%q: %w", pattern, err)}
		}
	}
	l.excludeGlobs = append([]string(nil), c.ExcludeGlobs...)
	l.excludeDirs = make(map[string]struct{}, len(c.ExcludeDirs))
	for _, name := range c.ExcludeDirs {
		l.excludeDirs[name] = struct{}{}
	}

	root := c.Root
	if root == "" {
		root = "."
	}
	if l.root, err = existingDir("root", root); err != nil {
		return l, err
	}
	libsAbs, err := existingDir("librariesRoot", anchor(l.root, c.LibrariesRoot))
	if err != nil {
		return l, err
	}
	if l.packagesAbs, err = existingDir("packagesRoot", anchor(l.root, c.PackagesRoot)); err != nil {
		return l, err
	}
	l.librariesRel = relSlash(l.root, libsAbs)
	l.packagesRel = relSlash(l.root, l.packagesAbs)

	l.workers = c.Workers
	if l.workers == 0 {
		l.workers = runtime.GOMAXPROCS(0)
	}
	return l, nil
}

func anchor(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func existingDir(field, p string) (string, error) {
	if p == "" {
		return "", &ConfigError{Field: field, Err: errors.New("not set")}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", &ConfigError{Field: field, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &ConfigError{Field: field, Err: err}
	}
	if !info.IsDir() {
		return "", &ConfigError{Field: field, Err: fmt.Errorf("%s is not a directory", abs)}
	}
	return abs, nil
}

func relSlash(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
