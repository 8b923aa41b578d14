package syntax

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonSyntaxLanguage = sitter.NewLanguage(tree_sitter_python.Language())

var pythonGrammar = Grammar{
	ID:           LanguagePython,
	FileSuffixes: []string{".py"},
	Marker:       "__init__.py",
	Separator:    ".",
	languageFor:  func(string) *sitter.Language { return pythonSyntaxLanguage },
	classify:     classifyPython,
}

// pythonStatementKinds covers node kinds that map one-to-one.
var pythonStatementKinds = map[string]Kind{
	"assert_statement":     KindAssert,
	"break_statement":      KindBreak,
	"continue_statement":   KindContinue,
	"delete_statement":     KindDelete,
	"except_clause":        KindExceptHandler,
	"except_group_clause":  KindExceptHandler,
	"global_statement":     KindGlobal,
	"if_statement":         KindIf,
	"elif_clause":          KindIf,
	"nonlocal_statement":   KindNonlocal,
	"pass_statement":       KindPass,
	"raise_statement":      KindRaise,
	"return_statement":     KindReturn,
	"type_alias_statement": KindTypeAlias,
	"while_statement":      KindWhile,
	"match_statement":      KindMatch,
}

func classifyPython(node *sitter.Node, source []byte) (Kind, []string) {
	kind := node.Kind()
	if k, ok := pythonStatementKinds[kind]; ok {
		return k, nil
	}

	switch kind {
	case "expression_statement":
		return pythonExpressionStatementKind(node), nil
	case "for_statement":
		if hasChildKind(node, "async") {
			return KindOther, nil
		}
		return KindFor, nil
	case "with_statement":
		if hasChildKind(node, "async") {
			return KindOther, nil
		}
		return KindWith, nil
	case "try_statement":
		if hasChildKind(node, "except_group_clause") {
			return KindTryStar, nil
		}
		return KindTry, nil
	case "import_statement":
		return KindImport, pythonImportTargets(node, source)
	case "import_from_statement":
		return KindImportFrom, pythonFromImportTarget(node, source)
	case "future_import_statement":
		return KindImportFrom, []string{"__future__"}
	}
	return KindOther, nil
}

// pythonExpressionStatementKind distinguishes assignments from bare
// expressions. A chained assignment nests inside one statement node and
// counts once.
func pythonExpressionStatementKind(node *sitter.Node) Kind {
	if node.NamedChildCount() == 1 {
		child := node.NamedChild(0)
		switch child.Kind() {
		case "assignment":
			if child.ChildByFieldName("type") != nil {
				return KindAnnAssign
			}
			return KindAssign
		case "augmented_assignment":
			return KindAugAssign
		}
	}
	return KindExpr
}

func pythonImportTargets(node *sitter.Node, source []byte) []string {
	names := fieldChildren(node, "name")
	targets := make([]string, 0, len(names))
	for i := range names {
		name := &names[i]
		if name.Kind() == "aliased_import" {
			name = name.ChildByFieldName("name")
		}
		if text := nodeText(name, source); text != "" {
			targets = append(targets, text)
		}
	}
	return targets
}

func pythonFromImportTarget(node *sitter.Node, source []byte) []string {
	module := node.ChildByFieldName("module_name")
	if module == nil {
		return nil
	}
	if module.Kind() == "relative_import" {
		// "from . import x" has no module; "from .pkg import x" names pkg.
		var dotted *sitter.Node
		for i := uint(0); i < module.NamedChildCount(); i++ {
			if child := module.NamedChild(i); child != nil && child.Kind() == "dotted_name" {
				dotted = child
			}
		}
		if dotted == nil {
			return nil
		}
		module = dotted
	}
	if text := nodeText(module, source); text != "" {
		return []string{text}
	}
	return nil
}
