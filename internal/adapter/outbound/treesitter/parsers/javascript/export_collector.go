package javascriptparser

import (
	"context"
	"fmt"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/errors/domain"
	"pagestatic/internal/domain/valueobject"
)

// ExportCollector extracts static export metadata from a page module's
// top-level statements. It holds no state, so one collector may serve
// concurrent callers; every Collect call fills its own ExportInfo.
type ExportCollector struct{}

// NewExportCollector creates an ExportCollector.
func NewExportCollector() *ExportCollector {
	return &ExportCollector{}
}

// Collect walks the direct children of the module root once and returns the
// facts found there. Nested scopes are never visited. Shapes that do not match
// are skipped, so the only error is a nil tree.
func (c *ExportCollector) Collect(ctx context.Context, tree *valueobject.ParseTree) (*entity.ExportInfo, error) {
	if tree == nil {
		return nil, fmt.Errorf("collect exports: %w", domain.ErrNilParseTree)
	}

	info := entity.NewExportInfo()
	statements := tree.TopLevelNodes()

	c.collectDirectives(tree, statements, info)

	for _, stmt := range statements {
		if stmt.Type == nodeExportStatement {
			c.visitExportStatement(tree, stmt, info)
		}
	}

	slogger.Debug(ctx, "Collected page exports", slogger.Fields{
		"language":         tree.Language().Name(),
		"directives":       info.Directives.Sorted(),
		"runtime_resolved": info.Runtime != nil,
		"preferred_region": len(info.PreferredRegion),
		"extra_properties": info.ExtraProperties.Len(),
	})

	return info, nil
}

// collectDirectives records "use server" and "use client" from statements
// that are nothing but a string literal.
func (c *ExportCollector) collectDirectives(
	tree *valueobject.ParseTree,
	statements []*valueobject.ParseNode,
	info *entity.ExportInfo,
) {
	for _, stmt := range statements {
		if stmt.Type != nodeExpressionStatement {
			continue
		}

		parts := significantChildren(stmt, tokenSemicolon)
		if len(parts) != 1 {
			continue
		}

		value, ok := stringLiteralValue(tree, parts[0])
		if !ok {
			continue
		}

		if directive, ok := valueobject.DirectiveFromPrologue(value); ok {
			info.AddDirective(directive)
		}
	}
}

func (c *ExportCollector) visitExportStatement(
	tree *valueobject.ParseTree,
	stmt *valueobject.ParseNode,
	info *entity.ExportInfo,
) {
	// export default ... never names a binding.
	if findChildByType(stmt, tokenDefaultKeyword) != nil {
		return
	}

	for _, child := range significantChildren(stmt, tokenExportKeyword, tokenSemicolon) {
		switch child.Type {
		case nodeLexicalDeclaration, nodeVariableDeclaration:
			c.visitVariableDeclaration(tree, child, info)
		case nodeAmbientDeclaration:
			for _, inner := range significantChildren(child, tokenDeclareKeyword) {
				if inner.Type == nodeLexicalDeclaration || inner.Type == nodeVariableDeclaration {
					c.visitVariableDeclaration(tree, inner, info)
				}
			}
		case nodeFunctionDeclaration, nodeGeneratorFunctionDecl, nodeExportClause:
			// Function exports and export { name } lists are left out of ExportInfo.
		}
	}
}

func (c *ExportCollector) visitVariableDeclaration(
	tree *valueobject.ParseTree,
	decl *valueobject.ParseNode,
	info *entity.ExportInfo,
) {
	for _, declarator := range findChildrenByType(decl, nodeVariableDeclarator) {
		parts := significantChildren(declarator)
		if len(parts) == 0 || parts[0].Type != nodeIdentifier {
			// destructuring pattern
			continue
		}

		name := tree.GetNodeText(parts[0])
		init := initializer(parts)

		switch name {
		case valueobject.ExportRuntime:
			if value, ok := stringLiteralValue(tree, init); ok {
				info.SetRuntime(&value)
			} else {
				info.SetRuntime(nil)
			}
		case valueobject.ExportPreferredRegion:
			c.collectPreferredRegion(tree, init, info)
		default:
			info.AddExtraProperty(name)
		}
	}
}

// collectPreferredRegion appends the string elements of an array initializer,
// or a lone string initializer. Other shapes add nothing.
func (c *ExportCollector) collectPreferredRegion(
	tree *valueobject.ParseTree,
	init *valueobject.ParseNode,
	info *entity.ExportInfo,
) {
	if init == nil {
		return
	}

	switch init.Type {
	case nodeArray:
		for _, elem := range significantChildren(init, tokenOpenBracket, tokenCloseBracket, tokenComma) {
			if value, ok := stringLiteralValue(tree, elem); ok {
				info.AppendPreferredRegion(value)
			}
		}
	case nodeString:
		if value, ok := stringLiteralValue(tree, init); ok {
			info.AppendPreferredRegion(value)
		}
	}
}

// initializer returns the expression after "=" in a declarator, or nil.
func initializer(parts []*valueobject.ParseNode) *valueobject.ParseNode {
	for i, part := range parts {
		if part.Type == tokenAssign && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return nil
}

// stringLiteralValue returns the cooked value of a well-formed string literal node.
func stringLiteralValue(tree *valueobject.ParseTree, node *valueobject.ParseNode) (string, bool) {
	if node == nil || node.Type != nodeString || containsSyntaxError(node) {
		return "", false
	}
	return cookStringLiteral(tree.GetNodeText(node))
}

func containsSyntaxError(node *valueobject.ParseNode) bool {
	if node.IsErrorNode() || node.IsMissing {
		return true
	}
	for _, child := range node.Children {
		if containsSyntaxError(child) {
			return true
		}
	}
	return false
}
