package javascriptparser

import "pagestatic/internal/domain/valueobject"

// tree-sitter node types shared by the javascript, typescript and tsx grammars.
const (
	nodeExpressionStatement   = "expression_statement"
	nodeExportStatement       = "export_statement"
	nodeExportClause          = "export_clause"
	nodeLexicalDeclaration    = "lexical_declaration"
	nodeVariableDeclaration   = "variable_declaration"
	nodeVariableDeclarator    = "variable_declarator"
	nodeAmbientDeclaration    = "ambient_declaration"
	nodeFunctionDeclaration   = "function_declaration"
	nodeGeneratorFunctionDecl = "generator_function_declaration"
	nodeIdentifier            = "identifier"
	nodeString                = "string"
	nodeArray                 = "array"
	nodeComment               = "comment"
	nodeHTMLComment           = "html_comment"

	tokenAssign         = "="
	tokenComma          = ","
	tokenSemicolon      = ";"
	tokenOpenBracket    = "["
	tokenCloseBracket   = "]"
	tokenExportKeyword  = "export"
	tokenDeclareKeyword = "declare"
	tokenDefaultKeyword = "default"
)

func findChildByType(node *valueobject.ParseNode, nodeType string) *valueobject.ParseNode {
	if node == nil {
		return nil
	}

	for _, child := range node.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

func findChildrenByType(node *valueobject.ParseNode, nodeType string) []*valueobject.ParseNode {
	if node == nil {
		return nil
	}

	var matches []*valueobject.ParseNode
	for _, child := range node.Children {
		if child.Type == nodeType {
			matches = append(matches, child)
		}
	}
	return matches
}

// isTrivia reports whether a node carries no meaning for export collection.
func isTrivia(node *valueobject.ParseNode) bool {
	switch node.Type {
	case nodeComment, nodeHTMLComment:
		return true
	}
	return node.IsMissing
}

// significantChildren drops comments and the given punctuation tokens.
func significantChildren(node *valueobject.ParseNode, punctuation ...string) []*valueobject.ParseNode {
	if node == nil {
		return nil
	}

	children := make([]*valueobject.ParseNode, 0, len(node.Children))
next:
	for _, child := range node.Children {
		if isTrivia(child) {
			continue
		}
		for _, p := range punctuation {
			if child.Type == p {
				continue next
			}
		}
		children = append(children, child)
	}
	return children
}
