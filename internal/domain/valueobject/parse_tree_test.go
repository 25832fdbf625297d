package valueobject

import (
	"context"
	"pagestatic/internal/domain/errors/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportSource is `export const a = "x";` laid out as tree-sitter would produce it.
const exportSource = `export const a = "x";`

func exportTree() *ParseNode {
	str := &ParseNode{Type: "string", StartByte: 17, EndByte: 20}
	declarator := &ParseNode{
		Type: "variable_declarator", StartByte: 13, EndByte: 20,
		Children: []*ParseNode{
			{Type: "identifier", StartByte: 13, EndByte: 14},
			{Type: "=", StartByte: 15, EndByte: 16},
			str,
		},
	}
	lexical := &ParseNode{
		Type: "lexical_declaration", StartByte: 7, EndByte: 21,
		Children: []*ParseNode{
			{Type: "const", StartByte: 7, EndByte: 12},
			declarator,
			{Type: ";", StartByte: 20, EndByte: 21},
		},
	}
	export := &ParseNode{
		Type: "export_statement", StartByte: 0, EndByte: 21,
		Children: []*ParseNode{
			{Type: "export", StartByte: 0, EndByte: 6},
			lexical,
		},
	}
	return &ParseNode{Type: NodeTypeProgram, StartByte: 0, EndByte: 21, Children: []*ParseNode{export}}
}

func jsLanguage(t *testing.T) Language {
	t.Helper()
	lang, err := NewLanguage(LanguageJavaScript)
	require.NoError(t, err)
	return lang
}

func TestParseTree_NewParseTree(t *testing.T) {
	tests := []struct {
		name    string
		root    *ParseNode
		source  []byte
		wantErr error
		errMsg  string
	}{
		{
			name:   "valid tree",
			root:   exportTree(),
			source: []byte(exportSource),
		},
		{
			name:   "nil root",
			root:   nil,
			source: []byte(exportSource),
			errMsg: "root node cannot be nil",
		},
		{
			name:    "empty source",
			root:    &ParseNode{Type: NodeTypeProgram},
			source:  nil,
			wantErr: domain.ErrEmptySource,
		},
		{
			name:   "root exceeds source",
			root:   &ParseNode{Type: NodeTypeProgram, EndByte: 100},
			source: []byte("x"),
			errMsg: "malformed parse tree: program node end byte 100 exceeds source length 1",
		},
		{
			name: "nested node exceeds source",
			root: &ParseNode{Type: NodeTypeProgram, EndByte: 1, Children: []*ParseNode{
				{Type: "string", StartByte: 0, EndByte: 9},
			}},
			source: []byte("x"),
			errMsg: "malformed parse tree: string node end byte 9 exceeds source length 1",
		},
		{
			name: "inverted range",
			root: &ParseNode{Type: NodeTypeProgram, EndByte: 1, Children: []*ParseNode{
				{Type: "identifier", StartByte: 1, EndByte: 0},
			}},
			source: []byte("x"),
			errMsg: "malformed parse tree: identifier node start byte 1 is greater than end byte 0",
		},
		{
			name:   "nil child",
			root:   &ParseNode{Type: NodeTypeProgram, EndByte: 1, Children: []*ParseNode{nil}},
			source: []byte("x"),
			errMsg: "malformed parse tree: program node has a nil child",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := NewParseMetadata(time.Millisecond, "go-tree-sitter-bare", "javascript")
			require.NoError(t, err)

			tree, err := NewParseTree(context.Background(), jsLanguage(t), tt.root, tt.source, md)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tree)
			case tt.errMsg != "":
				require.EqualError(t, err, tt.errMsg)
				assert.Nil(t, tree)
			default:
				require.NoError(t, err)
				assert.Equal(t, LanguageJavaScript, tree.Language().Name())
				assert.Equal(t, string(tt.source), tree.GetNodeText(tree.RootNode()))
			}
		})
	}
}

func TestNewParseMetadata_RejectsNegativeDuration(t *testing.T) {
	_, err := NewParseMetadata(-time.Second, "", "")
	require.Error(t, err)
}

func TestParseTree_Queries(t *testing.T) {
	md, err := NewParseMetadata(0, "", "")
	require.NoError(t, err)
	tree, err := NewParseTree(context.Background(), jsLanguage(t), exportTree(), []byte(exportSource), md)
	require.NoError(t, err)

	top := tree.TopLevelNodes()
	require.Len(t, top, 1)
	assert.Equal(t, "export_statement", top[0].Type)

	declarator := top[0].Children[1].Children[1]
	assert.Equal(t, `a = "x"`, tree.GetNodeText(declarator))

	assert.Equal(t, 10, CountNodes(tree.RootNode()))
	assert.Equal(t, 5, CalculateDepth(tree.RootNode()))
	assert.False(t, tree.HasSyntaxErrors())

	assert.Contains(t, tree.ToSExpression(), "(program (export_statement (export) (lexical_declaration")
}

func TestParseTree_GetNodeTextOutOfRange(t *testing.T) {
	md, err := NewParseMetadata(0, "", "")
	require.NoError(t, err)
	tree, err := NewParseTree(context.Background(), jsLanguage(t), exportTree(), []byte(exportSource), md)
	require.NoError(t, err)

	assert.Empty(t, tree.GetNodeText(nil))
	assert.Empty(t, tree.GetNodeText(&ParseNode{StartByte: 5, EndByte: 500}))
	assert.Empty(t, tree.GetNodeText(&ParseNode{StartByte: 5, EndByte: 2}))
}

func TestParseTree_HasSyntaxErrors(t *testing.T) {
	root := exportTree()
	root.Children = append(root.Children, &ParseNode{Type: NodeTypeError, StartByte: 20, EndByte: 21})

	md, err := NewParseMetadata(0, "", "")
	require.NoError(t, err)
	tree, err := NewParseTree(context.Background(), jsLanguage(t), root, []byte(exportSource), md)
	require.NoError(t, err)

	assert.True(t, tree.HasSyntaxErrors())

	missing := exportTree()
	missing.Children[0].Children = append(missing.Children[0].Children, &ParseNode{Type: ";", IsMissing: true})
	tree, err = NewParseTree(context.Background(), jsLanguage(t), missing, []byte(exportSource), md)
	require.NoError(t, err)
	assert.True(t, tree.HasSyntaxErrors())
}

func TestCountNodesAndDepth_Nil(t *testing.T) {
	assert.Equal(t, 0, CountNodes(nil))
	assert.Equal(t, 0, CalculateDepth(nil))
}
