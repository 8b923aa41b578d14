package audit

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Someblueman/archgate/internal/syntax"
)

// extractFile reads and parses one file. Malformed source yields a
// *FileParseError; anything else is an I/O failure.
func extractFile(p *syntax.Parser, task fileTask) (SourceFile, error) {
	content, err := os.ReadFile(task.absPath)
	if err != nil {
		return SourceFile{}, fmt.Errorf("read %s: %w", task.relPath, err)
	}
	nodes, err := p.Parse(task.relPath, content)
	if err != nil {
		if errors.Is(err, syntax.ErrMalformedSource) {
			return SourceFile{}, &FileParseError{Path: task.relPath, Err: err}
		}
		return SourceFile{}, fmt.Errorf("parse %s: %w", task.relPath, err)
	}
	return NewSourceFile(task.relPath, nodes), nil
}

// NewSourceFile counts statement nodes and collects the distinct import
// targets of nodes.
func NewSourceFile(path string, nodes []syntax.Node) SourceFile {
	count := 0
	targets := make(map[string]struct{})
	for _, n := range nodes {
		if n.Kind.IsStatement() {
			count++
		}
		if n.Kind.IsImport() {
			for _, target := range n.ImportTargets {
				targets[target] = struct{}{}
			}
		}
	}

	imports := make([]string, 0, len(targets))
	for target := range targets {
		imports = append(imports, target)
	}
	sort.Strings(imports)

	return SourceFile{
		Path:           path,
		StatementCount: count,
		ImportTargets:  imports,
	}
}
