// Package cli provides the command-line interface for NebulaSQL.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/commands"
	"github.com/leapstack-labs/nebulasql/internal/cli/config"
	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "nebulasql",
		Short: "NebulaSQL - streaming SQL parser and toolkit",
		Long: `NebulaSQL parses the NebulaSQL streaming query language: SELECT queries
over unbounded streams with tumbling, sliding and threshold windows,
watermarks and sinks.

It prints canonical SQL, dumps syntax trees and tokens, lints windows and
identifiers, and serves the same features to editors (lsp) and over HTTP
(serve).`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// Load configuration: defaults < file < env < flags
			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: nebulasql.yaml in this or a parent directory)")
	pf.String("dialect", "", "Keyword mode: nebula, ansi or legacy")
	pf.Bool("ansi-keywords", false, "Reserve keywords the ANSI way")
	pf.Bool("legacy-exponent-as-decimal", false, "Read exponent literals as legacy decimals")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.String("keyword-case", "", "Keyword case of printed SQL (upper|lower)")
	pf.Int("workers", 0, "Files checked concurrently")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("keyword-case", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"upper", "lower"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewFormatCommand())
	rootCmd.AddCommand(commands.NewTokensCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewDialectsCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewLSPCommand(Version))
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command. Failures that a command has already
// reported on its output are not printed again.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, commands.ErrCheckFailed) && !errors.Is(err, commands.ErrNotFormatted) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for NebulaSQL.

To load completions:

Bash:
  $ source <(nebulasql completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ nebulasql completion bash > /etc/bash_completion.d/nebulasql
  # macOS:
  $ nebulasql completion bash > $(brew --prefix)/etc/bash_completion.d/nebulasql

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ nebulasql completion zsh > "${fpath[1]}/_nebulasql"

Fish:
  $ nebulasql completion fish | source

  # To load completions for each session, execute once:
  $ nebulasql completion fish > ~/.config/fish/completions/nebulasql.fish

PowerShell:
  PS> nebulasql completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
