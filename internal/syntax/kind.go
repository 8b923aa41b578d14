// Package syntax turns source text into a flat sequence of classified syntax
// nodes. Classification is table driven: every grammar maps its tree-sitter
// node kinds onto the closed Kind set defined here.
package syntax

// Kind is the closed set of node categories the auditor cares about.
type Kind uint8

const (
	KindOther Kind = iota
	KindAssert
	KindAssign
	KindAnnAssign
	KindAugAssign
	KindBreak
	KindContinue
	KindDelete
	KindExpr
	KindExceptHandler
	KindFor
	KindGlobal
	KindIf
	KindNonlocal
	KindPass
	KindRaise
	KindReturn
	KindTry
	KindTryStar
	KindTypeAlias
	KindWhile
	KindWith
	KindMatch
	KindImport
	KindImportFrom
)

var kindNames = [...]string{
	KindOther:         "other",
	KindAssert:        "assert",
	KindAssign:        "assign",
	KindAnnAssign:     "ann_assign",
	KindAugAssign:     "aug_assign",
	KindBreak:         "break",
	KindContinue:      "continue",
	KindDelete:        "delete",
	KindExpr:          "expr",
	KindExceptHandler: "except_handler",
	KindFor:           "for",
	KindGlobal:        "global",
	KindIf:            "if",
	KindNonlocal:      "nonlocal",
	KindPass:          "pass",
	KindRaise:         "raise",
	KindReturn:        "return",
	KindTry:           "try",
	KindTryStar:       "try_star",
	KindTypeAlias:     "type_alias",
	KindWhile:         "while",
	KindWith:          "with",
	KindMatch:         "match",
	KindImport:        "import",
	KindImportFrom:    "import_from",
}

// statementKinds is the membership table for statement counting.
var statementKinds = map[Kind]struct{}{
	KindAssert:        {},
	KindAssign:        {},
	KindAnnAssign:     {},
	KindAugAssign:     {},
	KindBreak:         {},
	KindContinue:      {},
	KindDelete:        {},
	KindExpr:          {},
	KindExceptHandler: {},
	KindFor:           {},
	KindGlobal:        {},
	KindIf:            {},
	KindNonlocal:      {},
	KindPass:          {},
	KindRaise:         {},
	KindReturn:        {},
	KindTry:           {},
	KindTryStar:       {},
	KindTypeAlias:     {},
	KindWhile:         {},
	KindWith:          {},
	KindMatch:         {},
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsStatement reports whether nodes of this kind count as statements.
func (k Kind) IsStatement() bool {
	_, ok := statementKinds[k]
	return ok
}

// IsImport reports whether nodes of this kind carry import targets.
func (k Kind) IsImport() bool {
	return k == KindImport || k == KindImportFrom
}

// StatementKinds returns the statement kinds in declaration order.
func StatementKinds() []Kind {
	kinds := make([]Kind, 0, len(statementKinds))
	for k := KindOther; int(k) < len(kindNames); k++ {
		if k.IsStatement() {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Node is one classified syntax-tree node. ImportTargets is only populated
// for import kinds and lists module paths in source order.
type Node struct {
	Kind          Kind
	ImportTargets []string
}
