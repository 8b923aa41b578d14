package audit

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// fileTask is one eligible source file, numbered in discovery order.
type fileTask struct {
	seq       int
	absPath   string
	relPath   string
	component string
}

// visitFunc receives one directory with its subdirectory and file names and
// returns the subdirectories to descend into.
type visitFunc func(dir string, subdirs, files []string) ([]string, error)

// walkTopDown visits dir and then, depth first, every subdirectory the visit
// function keeps. Entries are visited in lexical order.
func walkTopDown(ctx context.Context, dir string, visit visitFunc) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	var subdirs, files []string
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			subdirs = append(subdirs, entry.Name())
		case entry.Type().IsRegular():
			files = append(files, entry.Name())
		}
	}

	keep, err := visit(dir, subdirs, files)
	if err != nil {
		return err
	}
	for _, name := range keep {
		if err := walkTopDown(ctx, filepath.Join(dir, name), visit); err != nil {
			return err
		}
	}
	return nil
}

// pruneDirs drops hidden, underscore-prefixed, excluded and glob-excluded
// subdirectories of dir.
func (l layout) pruneDirs(dir string, subdirs []string) []string {
	kept := subdirs[:0]
	for _, name := range subdirs {
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		if _, excluded := l.excludeDirs[name]; excluded {
			continue
		}
		if l.globExcluded(relSlash(l.root, filepath.Join(dir, name))) {
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

func (l layout) globExcluded(rel string) bool {
	for _, pattern := range l.excludeGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// discover walks the scan root and emits every analyzable file whose parent
// directory is a component. Marker files themselves are never emitted.
func (l layout) discover(ctx context.Context, emit func(fileTask) error) error {
	seq := 0
	return walkTopDown(ctx, l.root, func(dir string, subdirs, files []string) ([]string, error) {
		keep := l.pruneDirs(dir, subdirs)
		if !containsName(files, l.marker) {
			return keep, nil
		}

		component := relSlash(l.root, dir)
		for _, name := range files {
			if name == l.marker || !l.grammar.Matches(name) {
				continue
			}
			abs := filepath.Join(dir, name)
			rel := relSlash(l.root, abs)
			if l.globExcluded(rel) {
				continue
			}
			if err := emit(fileTask{seq: seq, absPath: abs, relPath: rel, component: component}); err != nil {
				return nil, err
			}
			seq++
		}
		return keep, nil
	})
}

// packageNames walks the packages root and records the name of every
// outermost directory containing the marker. Names are unique and kept in
// discovery order.
func (l layout) packageNames(ctx context.Context) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})
	err := walkTopDown(ctx, l.packagesAbs, func(dir string, subdirs, files []string) ([]string, error) {
		if containsName(files, l.marker) {
			name := filepath.Base(dir)
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				names = append(names, name)
			}
			return nil, nil
		}
		return l.pruneDirs(dir, subdirs), nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover packages: %w", err)
	}
	return names, nil
}

// hasPathPrefix reports whether p equals prefix or lies below it, comparing
// whole slash-separated segments.
func hasPathPrefix(p, prefix string) bool {
	if prefix == "." || prefix == "" {
		return !strings.HasPrefix(p, "../") && p != ".."
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// isStrictAncestor reports whether ancestor is a proper ancestor of p.
func isStrictAncestor(ancestor, p string) bool {
	return ancestor != p && hasPathPrefix(p, ancestor)
}

// pathSegments splits a slash path into its segments.
func pathSegments(p string) []string {
	p = path.Clean(p)
	if p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
