package commands

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// TokensOptions holds options for the tokens command.
type TokensOptions struct {
	Comments bool
}

// TokenInfo is one row of the tokens command output.
type TokenInfo struct {
	Type    string `json:"type" yaml:"type"`
	Literal string `json:"literal" yaml:"literal"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Offset  int    `json:"offset" yaml:"offset"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	opts := &TokensOptions{}
	cmd := &cobra.Command{
		Use:   "tokens [file|-]",
		Short: "Print the token stream of SQL input",
		Long: `Run the lexer alone and print every token with its kind and position.

Keywords are reported by kind even when the parser would later accept them
as identifiers; that decision depends on the dialect and the position.`,
		Example: `  echo "SELECT a FROM s" | nebulasql tokens
  nebulasql tokens query.sql --comments -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Comments, "comments", false, "Include comments in the output")

	return cmd
}

func runTokens(cmd *cobra.Command, args []string, opts *TokensOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	name, src, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	infos, err := lexTokens(src, opts.Comments)
	if err != nil {
		return reportParseError(cc.Renderer, name, src, err)
	}
	return renderTokens(cc.Renderer, infos)
}

// lexTokens lexes src into rows ordered by offset. EOF is not included.
func lexTokens(src string, comments bool) ([]TokenInfo, error) {
	lexer := parser.NewLexer(src)
	toks, err := lexer.All()
	if err != nil {
		return nil, err
	}

	infos := make([]TokenInfo, 0, len(toks))
	for _, t := range toks {
		if t.Type == token.EOF {
			continue
		}
		infos = append(infos, TokenInfo{
			Type:    t.Type.String(),
			Literal: t.Literal,
			Line:    t.Pos.Line,
			Column:  t.Pos.Column,
			Offset:  t.Pos.Offset,
		})
	}
	if comments {
		for _, c := range lexer.Comments {
			infos = append(infos, TokenInfo{
				Type:    "COMMENT",
				Literal: c.Text,
				Line:    c.Span.Start.Line,
				Column:  c.Span.Start.Column,
				Offset:  c.Span.Start.Offset,
			})
		}
		sort.SliceStable(infos, func(i, j int) bool { return infos[i].Offset < infos[j].Offset })
	}
	return infos, nil
}

func renderTokens(r *output.Renderer, infos []TokenInfo) error {
	if ok, err := r.Structured(infos); ok {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Kind", "Text", "Pos"})
	for i, info := range infos {
		pos := token.Position{Line: info.Line, Column: info.Column}
		t.AppendRow(table.Row{i + 1, info.Type, info.Literal, pos.String()})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(t.RenderMarkdown())
		return nil
	}
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
	return nil
}
