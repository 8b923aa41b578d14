package audit

import (
	"context"
	"reflect"
	"testing"
)

func TestDiscoverPrunesExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"libs/core/__init__.py":            "",
		"libs/core/a.py":                   "x = 1\n",
		"libs/core/notes.txt":              "not python\n",
		"libs/core/_private/__init__.py":   "",
		"libs/core/_private/p.py":          "x = 1\n",
		"libs/.hidden/__init__.py":         "",
		"libs/.hidden/h.py":                "x = 1\n",
		"vendor/x/__init__.py":             "",
		"vendor/x/v.py":                    "x = 1\n",
		"generated/gen/__init__.py":        "",
		"generated/gen/g.py":               "x = 1\n",
		"packages/alpha/__init__.py":       "",
		"packages/alpha/m.py":              "x = 1\n",
		"packages/alpha/inner/__init__.py": "",
		"packages/alpha/inner/n.py":        "x = 1\n",
		"packages/loose/x.py":              "x = 1\n",
		"packages/beta/__init__.py":        "",
	})

	cfg := testConfig(root)
	cfg.ExcludeGlobs = []string{"generated/*"}
	l, err := cfg.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	var tasks []fileTask
	err = l.discover(context.Background(), func(task fileTask) error {
		tasks = append(tasks, task)
		return nil
	})
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	var got [][2]string
	for i, task := range tasks {
		if task.seq != i {
			t.Fatalf("expected sequence %d, got %d", i, task.seq)
		}
		got = append(got, [2]string{task.component, task.relPath})
	}
	want := [][2]string{
		{"libs/core", "libs/core/a.py"},
		{"packages/alpha", "packages/alpha/m.py"},
		{"packages/alpha/inner", "packages/alpha/inner/n.py"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected discovery:\n got %v\nwant %v", got, want)
	}
}

func TestPackageNamesListsOutermostComponents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"libs/":                            "",
		"packages/alpha/__init__.py":       "",
		"packages/alpha/inner/__init__.py": "",
		"packages/group/beta/__init__.py":  "",
		"packages/other/alpha/__init__.py": "",
		"packages/_skip/__init__.py":       "",
	})

	l, err := testConfig(root).resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	names, err := l.packageNames(context.Background())
	if err != nil {
		t.Fatalf("packageNames failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Fatalf("expected [alpha beta], got %v", names)
	}
}

func TestDiscoverHonorsCustomMarker(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"libs/a/COMPONENT":   "",
		"libs/a/x.py":        "x = 1\n",
		"libs/b/__init__.py": "",
		"libs/b/y.py":        "y = 1\n",
		"packages/":          "",
	})

	cfg := testConfig(root)
	cfg.Marker = "COMPONENT"
	l, err := cfg.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	var rels []string
	if err := l.discover(context.Background(), func(task fileTask) error {
		rels = append(rels, task.relPath)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rels, []string{"libs/a/x.py"}) {
		t.Fatalf("expected only libs/a/x.py, got %v", rels)
	}
}
