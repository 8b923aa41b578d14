package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrMalformedSource is matched by every *ParseError.
var ErrMalformedSource = errors.New("malformed source")

// ParseError reports source text the grammar could not parse cleanly.
type ParseError struct {
	Path   string
	Line   uint
	Column uint
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedSource
}

// Parser parses files of one grammar. It is not safe for concurrent use;
// give each goroutine its own Parser.
type Parser struct {
	grammar  Grammar
	parser   *sitter.Parser
	language *sitter.Language
}

// NewParser returns a parser for g. Call Close when done.
func NewParser(g Grammar) *Parser {
	return &Parser{grammar: g, parser: sitter.NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
	p.parser = nil
}

// Parse returns the classified nodes of source in pre-order. Nodes that
// classify as KindOther are omitted.
func (p *Parser) Parse(path string, source []byte) ([]Node, error) {
	language := p.grammar.languageFor(path)
	if language != p.language {
		if err := p.parser.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("set %s language: %w", p.grammar.ID, err)
		}
		p.language = language
	}

	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Path: path, Line: 1, Column: 1, Reason: "parser produced no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: path, Line: 1, Column: 1, Reason: "parser produced no tree"}
	}
	if root.HasError() {
		return nil, firstSyntaxError(path, root)
	}

	nodes := make([]Node, 0, 64)
	walkTreePreOrder(root, func(n *sitter.Node) {
		if !n.IsNamed() {
			return
		}
		kind, targets := p.grammar.classify(n, source)
		if kind == KindOther {
			return
		}
		nodes = append(nodes, Node{Kind: kind, ImportTargets: targets})
	})
	return nodes, nil
}

func firstSyntaxError(path string, root *sitter.Node) *ParseError {
	perr := &ParseError{Path: path, Line: 1, Column: 1, Reason: "syntax error"}
	found := false
	walkTreePreOrder(root, func(n *sitter.Node) {
		if found || !(n.IsError() || n.IsMissing()) {
			return
		}
		found = true
		pos := n.StartPosition()
		perr.Line = pos.Row + 1
		perr.Column = pos.Column + 1
		if n.IsMissing() {
			perr.Reason = "missing " + n.Kind()
		}
	})
	return perr
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

func unquoteStringLiteral(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "'") && strings.HasSuffix(raw, "'") && len(raw) >= 2 {
		raw = `"` + strings.ReplaceAll(raw[1:len(raw)-1], `"`, `\"`) + `"`
	}
	unquoted, err := strconv.Unquote(raw)
	if err != nil {
		return strings.Trim(raw, "\"'`")
	}
	return unquoted
}

// fieldChildren returns every child of node attached to field.
func fieldChildren(node *sitter.Node, field string) []sitter.Node {
	cursor := node.Walk()
	defer cursor.Close()
	return node.ChildrenByFieldName(field, cursor)
}

// hasChildKind reports whether any direct child (named or not) has kind.
func hasChildKind(node *sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return true
		}
	}
	return false
}

func walkTreePreOrder(root *sitter.Node, visit func(*sitter.Node)) {
	if root == nil || visit == nil {
		return
	}

	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(node)

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			child := node.Child(uint(i))
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
}
