package audit

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Someblueman/archgate/internal/syntax"
)

func pythonRules(names ...string) Rules {
	g, err := syntax.Lookup(syntax.LanguagePython)
	if err != nil {
		panic(err)
	}
	return Rules{
		LibrariesRoot:           "libs",
		PackagesRoot:            "packages",
		PackageNames:            names,
		Segments:                g.Segments,
		MaxFileStatementPercent: 0.1,
	}
}

func TestFileSizeRoundsHalfToEven(t *testing.T) {
	// 25 * 0.1 = 2.5 rounds to 2, so a 3-statement file is flagged.
	snap := snapshotOf(
		component("libs/a", file("libs/a/big.py", 3), file("libs/a/small.py", 2)),
		component("libs/b", file("libs/b/rest.py", 20)),
	)
	r := pythonRules()
	r.MaxFileStatementPercent = 1

	if got := r.FileSize(snap); len(got) != 0 {
		t.Fatalf("expected nothing flagged at 100%%, got %+v", got)
	}

	r.MaxFileStatementPercent = 0.1
	got := r.FileSize(snap)
	var flagged []string
	for _, f := range got {
		flagged = append(flagged, f.Paths[0])
	}
	if !reflect.DeepEqual(flagged, []string{"libs/a/big.py", "libs/b/rest.py"}) {
		t.Fatalf("unexpected file size findings: %v", flagged)
	}
	if !strings.Contains(got[0].Message, "maximum allowed per file is 2") {
		t.Fatalf("expected rounded threshold in message, got %q", got[0].Message)
	}
}

func TestComponentSizeDisabledByDefault(t *testing.T) {
	snap := snapshotOf(
		component("libs/a", file("libs/a/m.py", 90)),
		component("libs/b", file("libs/b/m.py", 10)),
	)
	r := pythonRules()
	if got := r.ComponentSize(snap); got != nil {
		t.Fatalf("expected disabled rule, got %+v", got)
	}

	r.MaxComponentStatementPercent = 0.5
	got := r.ComponentSize(snap)
	if len(got) != 1 || got[0].Paths[0] != "libs/a" {
		t.Fatalf("expected libs/a flagged, got %+v", got)
	}
}

func TestLibraryImportsMatchWholeSegments(t *testing.T) {
	snap := snapshotOf(
		component("libs/tools",
			file("libs/tools/good.py", 1, "alphabet.util", "os.path"),
			file("libs/tools/bad.py", 1, "packages.alpha.util", "alpha.other"),
		),
		component("packages/alpha", file("packages/alpha/core.py", 1)),
	)
	r := pythonRules("alpha")

	got := r.LibraryImports(snap)
	if len(got) != 1 {
		t.Fatalf("expected exactly one finding, got %+v", got)
	}
	if got[0].Category != CategoryImportBoundary || got[0].Paths[0] != "libs/tools/bad.py" {
		t.Fatalf("unexpected finding %+v", got[0])
	}
	if !strings.Contains(got[0].Message, "packages.alpha.util") {
		t.Fatalf("expected first offending import in message, got %q", got[0].Message)
	}
}

func TestPackageImportsExemptOwnPackage(t *testing.T) {
	snap := snapshotOf(
		component("packages/alpha", file("packages/alpha/core.py", 1, "alpha.helpers", "beta.api")),
		component("packages/beta", file("packages/beta/api.py", 1, "beta.core")),
		component("packages/gamma/sub", file("packages/gamma/sub/x.py", 1, "alpha", "beta", "gamma.sub")),
	)
	r := pythonRules("alpha", "beta", "gamma")

	got := r.PackageImports(snap)
	var pairs []string
	for _, f := range got {
		pairs = append(pairs, f.Paths[0]+" -> "+f.Message[strings.Index(f.Message, "sibling package ")+len("sibling package "):strings.Index(f.Message, " (")])
	}
	want := []string{
		"packages/alpha/core.py -> beta",
		"packages/gamma/sub/x.py -> alpha",
		"packages/gamma/sub/x.py -> beta",
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("unexpected package findings:\n got %v\nwant %v", pairs, want)
	}
}

func TestPackageImportsIgnoreFilesOutsidePackagesRoot(t *testing.T) {
	snap := snapshotOf(
		component("tools", file("tools/run.py", 1, "alpha.core")),
		component("packages/alpha", file("packages/alpha/core.py", 1)),
	)
	if got := pythonRules("alpha").PackageImports(snap); len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestDuplicateComponentNamesYieldSingleFinding(t *testing.T) {
	snap := snapshotOf(
		component("libs/utils", file("libs/utils/a.py", 1)),
		component("packages/x/utils", file("packages/x/utils/b.py", 1)),
		component("packages/y/utils", file("packages/y/utils/c.py", 1)),
		component("packages/y/core", file("packages/y/core/d.py", 1)),
	)

	got := DuplicateComponentNames(snap)
	if len(got) != 1 {
		t.Fatalf("expected a single finding, got %+v", got)
	}
	if !strings.HasSuffix(got[0].Message, "{utils}") {
		t.Fatalf("expected {utils} in message, got %q", got[0].Message)
	}
	want := []string{"libs/utils", "packages/x/utils", "packages/y/utils"}
	if !reflect.DeepEqual(got[0].Paths, want) {
		t.Fatalf("expected paths %v, got %v", want, got[0].Paths)
	}
}

func TestDuplicateComponentNamesNoneWhenUnique(t *testing.T) {
	snap := snapshotOf(
		component("libs/a", file("libs/a/x.py", 1)),
		component("libs/b", file("libs/b/y.py", 1)),
	)
	if got := DuplicateComponentNames(snap); got != nil {
		t.Fatalf("expected no finding, got %+v", got)
	}
}

func TestDuplicateFileNames(t *testing.T) {
	snap := snapshotOf(
		component("libs/a", file("libs/a/models.py", 1), file("libs/a/views.py", 1)),
		component("libs/b", file("libs/b/models.py", 1), file("libs/b/other.py", 1)),
	)

	got := DuplicateFileNames(snap)
	if len(got) != 1 {
		t.Fatalf("expected a single finding, got %+v", got)
	}
	if !strings.HasSuffix(got[0].Message, "{models.py}") {
		t.Fatalf("unexpected message %q", got[0].Message)
	}
	if !reflect.DeepEqual(got[0].Paths, []string{"libs/a/models.py", "libs/b/models.py"}) {
		t.Fatalf("unexpected paths %v", got[0].Paths)
	}
}

func TestMisplacedFilesCompareSegments(t *testing.T) {
	snap := snapshotOf(
		component("packages/ab", file("packages/ab/a.py", 1)),
		component("packages/abc", file("packages/abc/b.py", 1)),
	)
	if got := MisplacedFiles(snap); got != nil {
		t.Fatalf("expected sibling prefix not to count as nesting, got %+v", got)
	}

	snap = snapshotOf(
		component("packages/ab", file("packages/ab/a.py", 1), file("packages/ab/z.py", 1)),
		component("packages/ab/inner", file("packages/ab/inner/b.py", 1)),
	)
	got := MisplacedFiles(snap)
	if len(got) != 1 {
		t.Fatalf("expected one finding, got %+v", got)
	}
	if !reflect.DeepEqual(got[0].Paths, []string{"packages/ab/a.py", "packages/ab/z.py"}) {
		t.Fatalf("unexpected misplaced paths %v", got[0].Paths)
	}
}

func TestRootComponentIsAncestorOfAll(t *testing.T) {
	snap := snapshotOf(
		component(".", file("setup.py", 1)),
		component("libs/a", file("libs/a/x.py", 1)),
	)
	got := MisplacedFiles(snap)
	if len(got) != 1 || got[0].Paths[0] != "setup.py" {
		t.Fatalf("expected setup.py misplaced, got %+v", got)
	}
}

func TestHasPathPrefix(t *testing.T) {
	cases := []struct {
		p, prefix string
		want      bool
	}{
		{"packages/a/x.py", "packages", true},
		{"packages", "packages", true},
		{"packagesx/a.py", "packages", false},
		{"libs/a.py", ".", true},
		{"../outside.py", ".", false},
	}
	for _, tc := range cases {
		if got := hasPathPrefix(tc.p, tc.prefix); got != tc.want {
			t.Errorf("hasPathPrefix(%q, %q) = %v, want %v", tc.p, tc.prefix, got, tc.want)
		}
	}
}
