package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Verbose bool // Show full documentation
}

// RuleInfo is the serializable description of a lint rule.
type RuleInfo struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Severity    string   `json:"default_severity" yaml:"default_severity"`
	Effective   string   `json:"severity" yaml:"severity"`
	ConfigKeys  []string `json:"config_keys,omitempty" yaml:"config_keys,omitempty"`
	Rationale   string   `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	BadExample  string   `json:"bad_example,omitempty" yaml:"bad_example,omitempty"`
	GoodExample string   `json:"good_example,omitempty" yaml:"good_example,omitempty"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available lint rules",
		Long: `List the lint rules run by check, the language server and the HTTP API,
with their default severity and the severity in effect after configuration.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # List all rules
  nebulasql rules

  # Show details for a specific rule
  nebulasql rules sliding-advance

  # Output as JSON
  nebulasql rules -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose-docs", "V", false, "Show full documentation")

	return cmd
}

func runRules(cmd *cobra.Command, args []string, opts *RulesOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	lintCfg, err := cc.Cfg.BuildLintConfig()
	if err != nil {
		return err
	}

	var infos []RuleInfo
	for _, rule := range lintCfg.Rules() {
		if len(args) > 0 && rule.ID != args[0] {
			continue
		}
		effective := lint.SeverityOff
		if !lintCfg.IsDisabled(rule.ID) {
			effective = lintCfg.GetSeverity(rule.ID, rule.Severity)
		}
		infos = append(infos, RuleInfo{
			ID:          rule.ID,
			Description: rule.Description,
			Severity:    rule.Severity.String(),
			Effective:   effective.String(),
			ConfigKeys:  rule.ConfigKeys,
			Rationale:   rule.Rationale,
			BadExample:  rule.BadExample,
			GoodExample: rule.GoodExample,
		})
	}
	if len(args) > 0 && len(infos) == 0 {
		return fmt.Errorf("rule %q not found", args[0])
	}
	verbose := opts.Verbose || len(args) > 0

	r := cc.Renderer
	if len(args) > 0 {
		if ok, err := r.Structured(infos[0]); ok {
			return err
		}
	} else if ok, err := r.Structured(infos); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		listRulesMarkdown(r, infos, verbose)
		return nil
	}
	listRulesText(r, infos, verbose)
	return nil
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, infos []RuleInfo, verbose bool) {
	styles := r.Styles()

	r.Println(styles.Header1.Render(fmt.Sprintf("Lint Rules (%d)", len(infos))))
	r.Println("")
	for _, rule := range infos {
		sev := rule.Effective
		if sev != rule.Severity {
			sev += " (default " + rule.Severity + ")"
		}
		r.Printf("  %s  %s\n", styles.Bold.Render(fmt.Sprintf("%-22s", rule.ID)), styles.Muted.Render(sev))
		r.Println("    " + rule.Description)
		if verbose {
			printRuleDocs(r, rule, "    ")
		}
	}
	if !verbose {
		r.Println("")
		r.Println(styles.Muted.Render("Use 'nebulasql rules <rule-id>' for detailed documentation"))
	}
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, infos []RuleInfo, verbose bool) {
	r.Println(output.FormatHeader(1, "Lint Rules"))
	r.Println("")
	for _, rule := range infos {
		r.Printf("- **%s** (`%s`): %s\n", rule.ID, rule.Effective, rule.Description)
		if !verbose {
			continue
		}
		if rule.Rationale != "" {
			r.Println("  > " + strings.ReplaceAll(rule.Rationale, "\n", " "))
		}
		if len(rule.ConfigKeys) > 0 {
			r.Println("  " + output.FormatKeyValue("Options", strings.Join(rule.ConfigKeys, ", ")))
		}
		if rule.BadExample != "" {
			r.Println("  " + output.FormatKeyValue("Bad", "`"+rule.BadExample+"`"))
		}
		if rule.GoodExample != "" {
			r.Println("  " + output.FormatKeyValue("Good", "`"+rule.GoodExample+"`"))
		}
	}
}

func printRuleDocs(r *output.Renderer, rule RuleInfo, indent string) {
	styles := r.Styles()
	if rule.Rationale != "" {
		for _, line := range strings.Split(rule.Rationale, "\n") {
			r.Println(indent + styles.Muted.Render(line))
		}
	}
	if len(rule.ConfigKeys) > 0 {
		r.Printf("%s%s %s\n", indent, styles.Bold.Render("Options:"), strings.Join(rule.ConfigKeys, ", "))
	}
	if rule.BadExample != "" {
		r.Printf("%s%s %s\n", indent, styles.Bold.Render("Bad: "), styles.Error.Render(rule.BadExample))
	}
	if rule.GoodExample != "" {
		r.Printf("%s%s %s\n", indent, styles.Bold.Render("Good:"), styles.Success.Render(rule.GoodExample))
	}
	r.Println("")
}
