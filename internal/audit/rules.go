package audit

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Rules evaluates the layering, size and naming rules over a snapshot.
type Rules struct {
	// LibrariesRoot and PackagesRoot are slash paths relative to the scan root.
	LibrariesRoot string
	PackagesRoot  string
	PackageNames  []string
	// Segments splits an import target into module path segments.
	Segments func(target string) []string

	MaxFileStatementPercent      float64
	MaxComponentStatementPercent float64
}

// Check runs every rule family in a fixed order.
func (r Rules) Check(s Snapshot) []Finding {
	var findings []Finding
	findings = append(findings, r.FileSize(s)...)
	findings = append(findings, r.ComponentSize(s)...)
	findings = append(findings, r.LibraryImports(s)...)
	findings = append(findings, r.PackageImports(s)...)
	findings = append(findings, DuplicateComponentNames(s)...)
	findings = append(findings, DuplicateFileNames(s)...)
	findings = append(findings, MisplacedFiles(s)...)
	return findings
}

// percentThreshold rounds half to even, like Python's round.
func percentThreshold(total int, percent float64) int {
	return int(math.RoundToEven(float64(total) * percent))
}

// FileSize flags files above MaxFileStatementPercent of the global count.
func (r Rules) FileSize(s Snapshot) []Finding {
	threshold := percentThreshold(s.StatementCount, r.MaxFileStatementPercent)
	var findings []Finding
	for _, c := range s.Components {
		for _, f := range c.Files {
			if f.StatementCount <= threshold {
				continue
			}
			findings = append(findings, Finding{
				Category: CategoryFileSize,
				Message:  fmt.Sprintf("file %s has %d statements; maximum allowed per file is %d", f.Path, f.StatementCount, threshold),
				Paths:    []string{f.Path},
			})
		}
	}
	return findings
}

// ComponentSize flags components above MaxComponentStatementPercent of the
// global count. It is disabled when the percentage is zero.
func (r Rules) ComponentSize(s Snapshot) []Finding {
	if r.MaxComponentStatementPercent <= 0 {
		return nil
	}
	threshold := percentThreshold(s.StatementCount, r.MaxComponentStatementPercent)
	var findings []Finding
	for _, c := range s.Components {
		if c.StatementCount <= threshold {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryComponentSize,
			Message:  fmt.Sprintf("component %s has %d statements; maximum allowed per component is %d", c.Path, c.StatementCount, threshold),
			Paths:    []string{c.Path},
		})
	}
	return findings
}

// LibraryImports flags library files importing any known package. Each
// (file, package) pair is reported once.
func (r Rules) LibraryImports(s Snapshot) []Finding {
	var findings []Finding
	for _, c := range s.Components {
		for _, f := range c.Files {
			if !hasPathPrefix(f.Path, r.LibrariesRoot) {
				continue
			}
			for _, name := range r.PackageNames {
				target, ok := r.importWithSegment(f, name)
				if !ok {
					continue
				}
				findings = append(findings, Finding{
					Category: CategoryImportBoundary,
					Message:  fmt.Sprintf("library %s must not depend on package %s (imports %s)", f.Path, name, target),
					Paths:    []string{f.Path},
				})
			}
		}
	}
	return findings
}

// PackageImports flags package files importing a package whose name is not
// a segment of their own path. Self references are therefore exempt.
func (r Rules) PackageImports(s Snapshot) []Finding {
	var findings []Finding
	for _, c := range s.Components {
		for _, f := range c.Files {
			if !hasPathPrefix(f.Path, r.PackagesRoot) {
				continue
			}
			own := pathSegments(relativeTo(f.Path, r.PackagesRoot))
			for _, name := range r.PackageNames {
				if containsName(own, name) {
					continue
				}
				target, ok := r.importWithSegment(f, name)
				if !ok {
					continue
				}
				findings = append(findings, Finding{
					Category: CategoryImportBoundary,
					Message:  fmt.Sprintf("package %s must not depend on sibling package %s (imports %s)", f.Path, name, target),
					Paths:    []string{f.Path},
				})
			}
		}
	}
	return findings
}

// importWithSegment returns the first import target of f that contains
// name as a whole segment.
func (r Rules) importWithSegment(f SourceFile, name string) (string, bool) {
	for _, target := range f.ImportTargets {
		if containsName(r.Segments(target), name) {
			return target, true
		}
	}
	return "", false
}

// DuplicateComponentNames reports leaf names shared by components at
// different paths. It yields at most one Finding.
func DuplicateComponentNames(s Snapshot) []Finding {
	firstPath := make(map[string]string)
	duplicates := make(map[string]struct{})
	for _, c := range s.Components {
		leaf := c.LeafName()
		first, seen := firstPath[leaf]
		if !seen {
			firstPath[leaf] = c.Path
			continue
		}
		if first != c.Path {
			duplicates[leaf] = struct{}{}
		}
	}
	if len(duplicates) == 0 {
		return nil
	}

	var paths []string
	for _, c := range s.Components {
		if _, dup := duplicates[c.LeafName()]; dup {
			paths = append(paths, c.Path)
		}
	}
	sort.Strings(paths)
	return []Finding{{
		Category: CategoryDuplicateComponentName,
		Message:  fmt.Sprintf("component names used more than once: %s", formatSet(duplicates)),
		Paths:    paths,
	}}
}

// DuplicateFileNames reports file base names occurring in more than one
// file anywhere. It yields at most one Finding.
func DuplicateFileNames(s Snapshot) []Finding {
	counts := make(map[string]int)
	files := s.files()
	for _, f := range files {
		counts[f.Name()]++
	}
	duplicates := make(map[string]struct{})
	for name, n := range counts {
		if n > 1 {
			duplicates[name] = struct{}{}
		}
	}
	if len(duplicates) == 0 {
		return nil
	}

	var paths []string
	for _, f := range files {
		if _, dup := duplicates[f.Name()]; dup {
			paths = append(paths, f.Path)
		}
	}
	sort.Strings(paths)
	return []Finding{{
		Category: CategoryDuplicateFileName,
		Message:  fmt.Sprintf("file names used more than once: %s", formatSet(duplicates)),
		Paths:    paths,
	}}
}

// MisplacedFiles reports files sitting in a component that is a strict
// ancestor of another component. It yields at most one Finding.
func MisplacedFiles(s Snapshot) []Finding {
	var paths []string
	for _, c := range s.Components {
		if !hasNestedComponent(s, c.Path) {
			continue
		}
		for _, f := range c.Files {
			paths = append(paths, f.Path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)
	return []Finding{{
		Category: CategoryMisplacedFile,
		Message:  fmt.Sprintf("%d files sit beside nested components: %s", len(paths), strings.Join(paths, ", ")),
		Paths:    paths,
	}}
}

func hasNestedComponent(s Snapshot, ancestor string) bool {
	for _, other := range s.Components {
		if isStrictAncestor(ancestor, other.Path) {
			return true
		}
	}
	return false
}

func formatSet(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}

// relativeTo strips root from a slash path already known to lie below it.
func relativeTo(p, root string) string {
	if root == "." || root == "" {
		return p
	}
	return strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
}
