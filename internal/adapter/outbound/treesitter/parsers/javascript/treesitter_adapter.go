package javascriptparser

import (
	"context"
	"fmt"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/errors/domain"
	"pagestatic/internal/domain/valueobject"
	"time"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

const treeSitterVersion = "go-tree-sitter-bare"

// grammarLoaders maps grammar names to their go-sitter-forest bindings.
//
//nolint:gochecknoglobals // Static table of grammar bindings.
var grammarLoaders = map[string]func() unsafe.Pointer{
	"javascript": javascript.GetLanguage,
	"typescript": typescript.GetLanguage,
	"tsx":        tsx.GetLanguage,
}

// TreeSitterAdapter parses JavaScript, TypeScript and TSX page modules with tree-sitter.
//
// A tree-sitter parser is not safe for concurrent use, so a fresh parser is
// created for every call. Grammars are shared and read-only.
type TreeSitterAdapter struct {
	grammars map[string]*tree_sitter.Language
}

// NewTreeSitterAdapter loads the grammars of every supported language.
func NewTreeSitterAdapter() (*TreeSitterAdapter, error) {
	grammars := make(map[string]*tree_sitter.Language)
	for _, lang := range valueobject.SupportedLanguages() {
		load, ok := grammarLoaders[lang.Grammar()]
		if !ok {
			return nil, fmt.Errorf("no go-sitter-forest binding for %s grammar", lang.Grammar())
		}
		grammars[lang.Grammar()] = tree_sitter.NewLanguage(load())
	}

	return &TreeSitterAdapter{grammars: grammars}, nil
}

// ParseSource parses source and returns a detached ParseTree.
func (adapter *TreeSitterAdapter) ParseSource(
	ctx context.Context,
	language valueobject.Language,
	source []byte,
) (*valueobject.ParseTree, error) {
	if len(source) == 0 {
		return nil, domain.ErrEmptySource
	}

	grammar, ok := adapter.grammars[language.Grammar()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, language.Name())
	}

	parser := tree_sitter.NewParser()
	if !parser.SetLanguage(grammar) {
		return nil, fmt.Errorf("%w: failed to set %s language in tree-sitter parser",
			domain.ErrParseFailed, language.Name())
	}

	startTime := time.Now()

	tree, err := parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: tree-sitter parsing failed: %w", domain.ErrParseFailed, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: tree-sitter returned no tree", domain.ErrParseFailed)
	}
	defer tree.Close()

	parseDuration := time.Since(startTime)

	rootNode := convertTreeSitterNode(tree.RootNode())

	metadata, err := valueobject.NewParseMetadata(parseDuration, treeSitterVersion, language.Grammar())
	if err != nil {
		return nil, fmt.Errorf("failed to create parse metadata: %w", err)
	}
	metadata.NodeCount = valueobject.CountNodes(rootNode)
	metadata.MaxDepth = valueobject.CalculateDepth(rootNode)
	metadata.ErrorCount = countErrorNodes(rootNode)

	parseTree, err := valueobject.NewParseTree(ctx, language, rootNode, source, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse tree: %w", err)
	}

	slogger.Debug(ctx, "Page module parsed successfully", slogger.Fields{
		"language":       language.Name(),
		"source_length":  len(source),
		"node_count":     metadata.NodeCount,
		"max_depth":      metadata.MaxDepth,
		"error_count":    metadata.ErrorCount,
		"parse_duration": parseDuration.String(),
	})

	return parseTree, nil
}

// convertTreeSitterNode converts a tree-sitter node to our ParseNode structure.
func convertTreeSitterNode(tsNode tree_sitter.Node) *valueobject.ParseNode {
	node := &valueobject.ParseNode{
		Type:      tsNode.Type(),
		StartByte: valueobject.ClampUintToUint32(tsNode.StartByte()),
		EndByte:   valueobject.ClampUintToUint32(tsNode.EndByte()),
		StartPos: valueobject.Position{
			Row:    valueobject.ClampUintToUint32(tsNode.StartPoint().Row),
			Column: valueobject.ClampUintToUint32(tsNode.StartPoint().Column),
		},
		EndPos: valueobject.Position{
			Row:    valueobject.ClampUintToUint32(tsNode.EndPoint().Row),
			Column: valueobject.ClampUintToUint32(tsNode.EndPoint().Column),
		},
		IsMissing: tsNode.IsMissing(),
		Children:  make([]*valueobject.ParseNode, 0, tsNode.ChildCount()),
	}

	childCount := tsNode.ChildCount()
	for i := range childCount {
		child := tsNode.Child(i)
		if !child.IsNull() {
			node.Children = append(node.Children, convertTreeSitterNode(child))
		}
	}

	return node
}

func countErrorNodes(node *valueobject.ParseNode) int {
	if node == nil {
		return 0
	}

	count := 0
	if node.IsErrorNode() || node.IsMissing {
		count++
	}
	for _, child := range node.Children {
		count += countErrorNodes(child)
	}
	return count
}
