package valueobject

import (
	"context"
	"errors"
	"fmt"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/errors/domain"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Node types tree-sitter uses to flag recovered syntax errors.
const (
	NodeTypeError   = "ERROR"
	NodeTypeProgram = "program"
)

// ParseTree is a read-only syntax tree for one page module.
//
// The tree is detached from tree-sitter once built: every node is a plain
// ParseNode, so a ParseTree can be shared by concurrent readers.
type ParseTree struct {
	language Language
	rootNode *ParseNode
	source   []byte
	metadata ParseMetadata
}

// ParseNode represents a node in the parse tree.
type ParseNode struct {
	Type      string
	StartByte uint32
	EndByte   uint32
	StartPos  Position
	EndPos    Position
	IsMissing bool
	Children  []*ParseNode
}

// Position represents a position in source code.
type Position struct {
	Row    uint32
	Column uint32
}

// ParseMetadata contains metadata about the parse operation.
type ParseMetadata struct {
	ParseDuration     time.Duration
	TreeSitterVersion string
	GrammarVersion    string
	NodeCount         int
	MaxDepth          int
	ErrorCount        int
}

// parseTreeMetrics holds OTEL metrics for ParseTree creation.
type parseTreeMetrics struct {
	parseOperationsCounter metric.Int64Counter
	parseTimeHistogram     metric.Float64Histogram
	treeNodeCountHistogram metric.Int64Histogram
	treeDepthHistogram     metric.Int64Histogram
}

// NewParseTree creates a new ParseTree value object with validation.
func NewParseTree(
	ctx context.Context,
	language Language,
	rootNode *ParseNode,
	source []byte,
	metadata ParseMetadata,
) (*ParseTree, error) {
	if rootNode == nil {
		slogger.Error(ctx, "Failed to create ParseTree: root node is nil", slogger.Fields{
			"language":      language.Name(),
			"source_length": len(source),
		})
		return nil, errors.New("root node cannot be nil")
	}

	if len(source) == 0 {
		slogger.Error(ctx, "Failed to create ParseTree: empty source code", slogger.Fields{
			"language": language.Name(),
		})
		return nil, domain.ErrEmptySource
	}

	if err := validateNode(rootNode, len(source)); err != nil {
		slogger.Error(ctx, "Failed to create ParseTree: malformed node ranges", slogger.Fields{
			"language":      language.Name(),
			"source_length": len(source),
			"error":         err.Error(),
		})
		return nil, fmt.Errorf("malformed parse tree: %w", err)
	}

	pt := &ParseTree{
		language: language,
		rootNode: rootNode,
		source:   source,
		metadata: metadata,
	}

	metrics, err := initParseTreeMetrics()
	if err != nil {
		slogger.Warn(ctx, "Failed to initialize parse tree metrics, continuing without metrics", slogger.Fields{
			"error":    err.Error(),
			"language": language.Name(),
		})
	} else {
		metrics.recordParseOperation(ctx, language.Name(), metadata)
	}

	slogger.Debug(ctx, "ParseTree created successfully", slogger.Fields{
		"language":       language.Name(),
		"node_count":     metadata.NodeCount,
		"max_depth":      metadata.MaxDepth,
		"source_length":  len(source),
		"parse_duration": metadata.ParseDuration.String(),
	})

	return pt, nil
}

// NewParseMetadata creates a new ParseMetadata value object.
func NewParseMetadata(duration time.Duration, treeSitterVersion, grammarVersion string) (ParseMetadata, error) {
	if duration < 0 {
		return ParseMetadata{}, errors.New("parse duration cannot be negative")
	}

	return ParseMetadata{
		ParseDuration:     duration,
		TreeSitterVersion: treeSitterVersion,
		GrammarVersion:    grammarVersion,
	}, nil
}

// Language returns the language of the parse tree.
func (pt *ParseTree) Language() Language {
	return pt.language
}

// RootNode returns the root node of the parse tree.
func (pt *ParseTree) RootNode() *ParseNode {
	return pt.rootNode
}

// Metadata returns the metadata of the parse tree.
func (pt *ParseTree) Metadata() ParseMetadata {
	return pt.metadata
}

// TopLevelNodes returns the module's top-level statements in source order.
func (pt *ParseTree) TopLevelNodes() []*ParseNode {
	if pt.rootNode == nil {
		return nil
	}
	return pt.rootNode.Children
}

// GetNodeText returns the source text covered by a node.
func (pt *ParseTree) GetNodeText(node *ParseNode) string {
	if node == nil || node.StartByte > node.EndByte {
		return ""
	}

	if int64(node.EndByte) > int64(len(pt.source)) {
		return ""
	}

	return string(pt.source[node.StartByte:node.EndByte])
}

// HasSyntaxErrors reports whether tree-sitter had to recover from malformed input.
func (pt *ParseTree) HasSyntaxErrors() bool {
	return hasErrorNodes(pt.rootNode)
}

func hasErrorNodes(node *ParseNode) bool {
	if node == nil {
		return false
	}
	if node.IsErrorNode() || node.IsMissing {
		return true
	}
	for _, child := range node.Children {
		if hasErrorNodes(child) {
			return true
		}
	}
	return false
}

// validateNode checks that every node range is ordered and inside the source.
func validateNode(node *ParseNode, sourceLen int) error {
	if node.StartByte > node.EndByte {
		return fmt.Errorf("%s node start byte %d is greater than end byte %d", node.Type, node.StartByte, node.EndByte)
	}

	if int64(node.EndByte) > int64(sourceLen) {
		return fmt.Errorf("%s node end byte %d exceeds source length %d", node.Type, node.EndByte, sourceLen)
	}

	for _, child := range node.Children {
		if child == nil {
			return fmt.Errorf("%s node has a nil child", node.Type)
		}
		if err := validateNode(child, sourceLen); err != nil {
			return err
		}
	}
	return nil
}

// ToSExpression converts the parse tree to S-expression format.
func (pt *ParseTree) ToSExpression() string {
	return nodeToSExpression(pt.rootNode)
}

func nodeToSExpression(node *ParseNode) string {
	if node == nil {
		return ""
	}

	if len(node.Children) == 0 {
		return fmt.Sprintf("(%s)", node.Type)
	}

	parts := make([]string, 0, len(node.Children)+1)
	parts = append(parts, node.Type)
	for _, child := range node.Children {
		parts = append(parts, nodeToSExpression(child))
	}

	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// CountNodes counts a node and all of its descendants.
func CountNodes(node *ParseNode) int {
	if node == nil {
		return 0
	}

	count := 1
	for _, child := range node.Children {
		count += CountNodes(child)
	}
	return count
}

// CalculateDepth returns the depth of the subtree rooted at node.
func CalculateDepth(node *ParseNode) int {
	if node == nil {
		return 0
	}

	maxChildDepth := 0
	for _, child := range node.Children {
		if d := CalculateDepth(child); d > maxChildDepth {
			maxChildDepth = d
		}
	}
	return 1 + maxChildDepth
}

// IsErrorNode checks if a node represents an error.
func (pn *ParseNode) IsErrorNode() bool {
	return pn != nil && pn.Type == NodeTypeError
}

func initParseTreeMetrics() (*parseTreeMetrics, error) {
	meter := otel.Meter("pagestatic/parse_tree")

	parseOpsCounter, err := meter.Int64Counter(
		"parse_tree_operations_total",
		metric.WithDescription("Total number of parse tree operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse operations counter: %w", err)
	}

	parseTimeHist, err := meter.Float64Histogram(
		"parse_tree_duration_seconds",
		metric.WithDescription("Duration of parse tree operations in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse time histogram: %w", err)
	}

	nodeCountHist, err := meter.Int64Histogram(
		"parse_tree_node_count",
		metric.WithDescription("Number of nodes in parse tree"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create node count histogram: %w", err)
	}

	depthHist, err := meter.Int64Histogram(
		"parse_tree_depth",
		metric.WithDescription("Depth of parse tree"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create depth histogram: %w", err)
	}

	return &parseTreeMetrics{
		parseOperationsCounter: parseOpsCounter,
		parseTimeHistogram:     parseTimeHist,
		treeNodeCountHistogram: nodeCountHist,
		treeDepthHistogram:     depthHist,
	}, nil
}

func (m *parseTreeMetrics) recordParseOperation(ctx context.Context, language string, md ParseMetadata) {
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("operation", "create"),
	)

	m.parseOperationsCounter.Add(ctx, 1, attrs)
	m.parseTimeHistogram.Record(ctx, md.ParseDuration.Seconds(), attrs)
	m.treeNodeCountHistogram.Record(ctx, int64(md.NodeCount), attrs)
	m.treeDepthHistogram.Record(ctx, int64(md.MaxDepth), attrs)
}
