package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var (
	typeScriptSyntaxLanguage = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	typeScriptTSXLanguage    = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
)

var typeScriptGrammar = Grammar{
	ID:           LanguageTypeScript,
	FileSuffixes: []string{".ts", ".tsx", ".mts", ".cts"},
	Marker:       "index.ts",
	Separator:    "/",
	languageFor: func(path string) *sitter.Language {
		if strings.HasSuffix(strings.ToLower(path), ".tsx") {
			return typeScriptTSXLanguage
		}
		return typeScriptSyntaxLanguage
	},
	classify: classifyTypeScript,
}

// TypeScript constructs mapped onto the shared statement set. Declarations
// with initializers count as assignments, throw as raise, catch as an
// exception handler and switch as match.
var typeScriptStatementKinds = map[string]Kind{
	"expression_statement":   KindExpr,
	"lexical_declaration":    KindAssign,
	"variable_declaration":   KindAssign,
	"if_statement":           KindIf,
	"for_statement":          KindFor,
	"for_in_statement":       KindFor,
	"while_statement":        KindWhile,
	"do_statement":           KindWhile,
	"return_statement":       KindReturn,
	"break_statement":        KindBreak,
	"continue_statement":     KindContinue,
	"throw_statement":        KindRaise,
	"try_statement":          KindTry,
	"catch_clause":           KindExceptHandler,
	"switch_statement":       KindMatch,
	"type_alias_declaration": KindTypeAlias,
	"empty_statement":        KindPass,
}

func classifyTypeScript(node *sitter.Node, source []byte) (Kind, []string) {
	kind := node.Kind()
	if k, ok := typeScriptStatementKinds[kind]; ok {
		return k, nil
	}
	switch kind {
	case "import_statement":
		if target := typeScriptSource(node, source); target != "" {
			return KindImportFrom, []string{target}
		}
	case "export_statement":
		// Only re-exports ("export { x } from './y'") create an edge.
		if target := typeScriptSource(node, source); target != "" {
			return KindImportFrom, []string{target}
		}
	}
	return KindOther, nil
}

func typeScriptSource(node *sitter.Node, source []byte) string {
	src := node.ChildByFieldName("source")
	if src == nil {
		return ""
	}
	return unquoteStringLiteral(nodeText(src, source))
}
