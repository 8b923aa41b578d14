package audit

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates files (slash paths relative to root) with contents.
// A trailing slash creates an empty directory.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(abs, 0755); err != nil {
				t.Fatalf("mkdir %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(rel), err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func testConfig(root string) Config {
	cfg := DefaultConfig()
	cfg.Root = root
	cfg.Workers = 4
	return cfg
}

func snapshotOf(components ...Component) Snapshot {
	var s Snapshot
	for _, c := range components {
		for _, f := range c.Files {
			c.StatementCount += f.StatementCount
		}
		s.StatementCount += c.StatementCount
		s.Components = append(s.Components, c)
	}
	return s
}

func component(path string, files ...SourceFile) Component {
	return Component{Path: path, Files: files}
}

func file(path string, statements int, imports ...string) SourceFile {
	return SourceFile{Path: path, StatementCount: statements, ImportTargets: imports}
}

func categoryCount(findings []Finding, category Category) int {
	n := 0
	for _, f := range findings {
		if f.Category == category {
			n++
		}
	}
	return n
}
