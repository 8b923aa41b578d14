package syntax

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	LanguagePython     = "python"
	LanguageRust       = "rust"
	LanguageTypeScript = "typescript"
)

// classifyFunc maps a named tree-sitter node to a Kind. Import kinds also
// return their targets.
type classifyFunc func(node *sitter.Node, source []byte) (Kind, []string)

// Grammar describes how one source language is recognized, parsed and
// classified.
type Grammar struct {
	ID           string
	FileSuffixes []string
	// Marker is the file whose presence turns a directory into a component.
	Marker string
	// Separator splits an import target into module path segments.
	Separator string

	languageFor func(path string) *sitter.Language
	classify    classifyFunc
}

// Matches reports whether path is a source file of this grammar.
func (g Grammar) Matches(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range g.FileSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Segments splits an import target on the grammar's module separator.
// Empty segments (leading "./" or "::") are dropped.
func (g Grammar) Segments(target string) []string {
	parts := strings.Split(target, g.Separator)
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

var builtinGrammars = map[string]Grammar{
	LanguagePython:     pythonGrammar,
	LanguageRust:       rustGrammar,
	LanguageTypeScript: typeScriptGrammar,
}

// Lookup resolves a language ID or alias to its grammar.
func Lookup(id string) (Grammar, error) {
	g, ok := builtinGrammars[canonicalLanguageID(id)]
	if !ok {
		return Grammar{}, fmt.Errorf("unsupported language: %s", id)
	}
	return g, nil
}

// LanguageIDs returns the built-in language IDs sorted lexicographically.
func LanguageIDs() []string {
	ids := make([]string, 0, len(builtinGrammars))
	for id := range builtinGrammars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func canonicalLanguageID(id string) string {
	normalized := strings.ToLower(strings.TrimSpace(id))
	switch normalized {
	case "", "py", "python3":
		return LanguagePython
	case "ts", "tsx":
		return LanguageTypeScript
	case "rs":
		return LanguageRust
	default:
		return normalized
	}
}
