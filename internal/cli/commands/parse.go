package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Expr bool // input is a single expression, not a statement
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse SQL and print its syntax tree",
		Long: `Parse one or more ';'-separated statements and print the syntax tree.

Reads standard input when no file (or "-") is given. The first syntax error
is reported with its line, column and the tokens that were expected.`,
		Example: `  # Tree view of a windowed query
  echo "SELECT COUNT(*) FROM s WINDOW TUMBLING(ts, SIZE 5 SEC)" | nebulasql parse

  # Machine-readable tree
  nebulasql parse query.sql -o json

  # A standalone expression
  echo "a BETWEEN 1 AND 2 OR b IS NULL" | nebulasql parse --expr`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Expr, "expr", false, "Parse the input as a single expression")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	name, src, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	p := parser.New(cc.Dialect)
	var trees []*format.TreeNode
	if opts.Expr {
		expr, err := p.ParseExpression(src)
		if err != nil {
			return reportParseError(cc.Renderer, name, src, err)
		}
		trees = append(trees, format.Tree(expr))
	} else {
		stmts, err := p.ParseScript(src)
		if err != nil {
			return reportParseError(cc.Renderer, name, src, err)
		}
		for _, stmt := range stmts {
			trees = append(trees, format.Tree(stmt))
		}
	}
	cc.Logger.Debug("parsed", "input", name, "statements", len(trees), "dialect", cc.Dialect.Name)

	return renderTrees(cc.Renderer, trees)
}

func renderTrees(r *output.Renderer, trees []*format.TreeNode) error {
	var payload any = trees
	if len(trees) == 1 {
		payload = trees[0]
	}
	if ok, err := r.Structured(payload); ok {
		return err
	}

	texts := make([]string, len(trees))
	for i, t := range trees {
		texts[i] = t.Text()
	}
	body := strings.Join(texts, "\n")
	if r.EffectiveMode() == output.ModeMarkdown {
		body = output.FormatCodeBlock("", body) + "\n"
	}
	_, err := fmt.Fprint(r.Writer(), body)
	return err
}

// reportParseError prints err with the offending source line and returns a
// short error for the command's exit status.
func reportParseError(r *output.Renderer, name, src string, err error) error {
	_, _ = fmt.Fprintf(r.ErrWriter(), "%s: %s\n", r.Styles().Path.Render(name), parser.FormatErrorContext(src, err))
	return fmt.Errorf("%s: parse failed", name)
}
