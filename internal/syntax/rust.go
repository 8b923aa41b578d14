package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

var rustSyntaxLanguage = sitter.NewLanguage(tree_sitter_rust.Language())

var rustGrammar = Grammar{
	ID:           LanguageRust,
	FileSuffixes: []string{".rs"},
	Marker:       "mod.rs",
	Separator:    "::",
	languageFor:  func(string) *sitter.Language { return rustSyntaxLanguage },
	classify:     classifyRust,
}

// Rust is expression oriented; control-flow expressions count as the
// statement constructs they stand for.
var rustStatementKinds = map[string]Kind{
	"expression_statement": KindExpr,
	"let_declaration":      KindAssign,
	"const_item":           KindAssign,
	"static_item":          KindGlobal,
	"if_expression":        KindIf,
	"for_expression":       KindFor,
	"while_expression":     KindWhile,
	"loop_expression":      KindWhile,
	"return_expression":    KindReturn,
	"break_expression":     KindBreak,
	"continue_expression":  KindContinue,
	"match_expression":     KindMatch,
	"type_item":            KindTypeAlias,
}

func classifyRust(node *sitter.Node, source []byte) (Kind, []string) {
	kind := node.Kind()
	if k, ok := rustStatementKinds[kind]; ok {
		return k, nil
	}
	switch kind {
	case "use_declaration":
		argument := node.ChildByFieldName("argument")
		if argument == nil {
			return KindOther, nil
		}
		return KindImport, rustUseTargets(argument, source, "")
	case "extern_crate_declaration":
		if name := nodeText(node.ChildByFieldName("name"), source); name != "" {
			return KindImport, []string{name}
		}
	}
	return KindOther, nil
}

// rustUseTargets flattens a use tree into module paths. A grouped import
// "a::b::{c, d}" yields "a::b::c" and "a::b::d"; a glob yields its prefix.
func rustUseTargets(node *sitter.Node, source []byte, prefix string) []string {
	if node == nil {
		return nil
	}
	join := func(path string) string {
		if prefix == "" {
			return path
		}
		if path == "" {
			return prefix
		}
		return prefix + "::" + path
	}

	switch node.Kind() {
	case "use_as_clause":
		return rustUseTargets(node.ChildByFieldName("path"), source, prefix)
	case "use_wildcard":
		text := strings.TrimSuffix(strings.TrimSpace(nodeText(node, source)), "*")
		return []string{join(strings.TrimSuffix(text, "::"))}
	case "scoped_use_list":
		path := join(nodeText(node.ChildByFieldName("path"), source))
		list := node.ChildByFieldName("list")
		if list == nil {
			return []string{path}
		}
		return rustUseTargets(list, source, path)
	case "use_list":
		var targets []string
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			if child.Kind() == "self" {
				targets = append(targets, prefix)
				continue
			}
			targets = append(targets, rustUseTargets(child, source, prefix)...)
		}
		return targets
	default:
		if text := nodeText(node, source); text != "" {
			return []string{join(text)}
		}
	}
	return nil
}
