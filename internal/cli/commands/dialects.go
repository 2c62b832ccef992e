package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
)

// DialectInfo describes a registered keyword mode.
type DialectInfo struct {
	Name                    string `json:"name" yaml:"name"`
	AnsiKeywords            bool   `json:"ansi_keywords" yaml:"ansi_keywords"`
	LegacyExponentAsDecimal bool   `json:"legacy_exponent_as_decimal" yaml:"legacy_exponent_as_decimal"`
	Description             string `json:"description" yaml:"description"`
	Active                  bool   `json:"active" yaml:"active"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the registered keyword modes",
		Long: `List every registered dialect with its two mode flags. The active one is
selected with --dialect or the dialect config key; --ansi-keywords and
--legacy-exponent-as-decimal switch a mode on for any dialect.`,
		Args: cobra.NoArgs,
		RunE: runDialects,
	}
}

func runDialects(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	var infos []DialectInfo
	for _, name := range dialect.List() {
		d, _ := dialect.Get(name)
		infos = append(infos, DialectInfo{
			Name:                    d.Name,
			AnsiKeywords:            d.AnsiKeywords(),
			LegacyExponentAsDecimal: d.LegacyExponentAsDecimal(),
			Description:             d.Description,
			Active:                  d.Name == cc.Dialect.Name,
		})
	}

	r := cc.Renderer
	if ok, err := r.Structured(infos); ok {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "Name", "ANSI keywords", "Legacy exponent", "Description"})
	for _, info := range infos {
		mark := ""
		if info.Active {
			mark = "*"
		}
		t.AppendRow(table.Row{mark, info.Name, onOff(info.AnsiKeywords), onOff(info.LegacyExponentAsDecimal), info.Description})
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(t.RenderMarkdown())
		return nil
	}
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
	return nil
}
