package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	javascriptparser "pagestatic/internal/adapter/outbound/treesitter/parsers/javascript"
	"pagestatic/internal/domain/valueobject"
	"strings"

	"github.com/spf13/cobra"
)

const astTextPreview = 50

func newASTCmd(_ *cliState) *cobra.Command {
	var (
		langFlag string
		sexp     bool
	)

	cmd := &cobra.Command{
		Use:   "ast FILE",
		Short: "Print the syntax tree of a page module",
		Long: `Print the tree-sitter syntax tree the export collector walks. Useful when a
page reports unexpected exports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAST(cmd.Context(), cmd.OutOrStdout(), args[0], langFlag, sexp)
		},
	}

	cmd.Flags().StringVar(&langFlag, "lang", "", "Language override (JavaScript, TypeScript, TSX)")
	cmd.Flags().BoolVar(&sexp, "sexp", false, "Print an S-expression instead of an indented tree")
	return cmd
}

func runAST(ctx context.Context, w io.Writer, path, langName string, sexp bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		lang valueobject.Language
		err  error
	)
	if langName != "" {
		lang, err = valueobject.NewLanguage(langName)
	} else {
		lang, err = valueobject.LanguageFromPath(path)
	}
	if err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	parser, err := javascriptparser.NewTreeSitterAdapter()
	if err != nil {
		return err
	}

	tree, err := parser.ParseSource(ctx, lang, source)
	if err != nil {
		return err
	}

	if sexp {
		_, err = fmt.Fprintln(w, tree.ToSExpression())
		return err
	}

	printAST(w, tree, tree.RootNode(), 0)

	md := tree.Metadata()
	_, err = fmt.Fprintf(w, "# %s: %d nodes, depth %d, %d errors, parsed in %s\n",
		lang.Name(), md.NodeCount, md.MaxDepth, md.ErrorCount, md.ParseDuration)
	return err
}

func printAST(w io.Writer, tree *valueobject.ParseTree, node *valueobject.ParseNode, depth int) {
	text := tree.GetNodeText(node)
	if len(text) > astTextPreview {
		text = text[:astTextPreview] + "..."
	}

	marker := ""
	if node.IsMissing {
		marker = " MISSING"
	}

	fmt.Fprintf(w, "%s%s%s: %q (bytes %d-%d)\n",
		strings.Repeat("  ", depth), node.Type, marker, text, node.StartByte, node.EndByte)

	for _, child := range node.Children {
		printAST(w, tree, child, depth+1)
	}
}
