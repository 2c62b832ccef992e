package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. It publishes parse
errors and lint findings, completes keywords the grammar accepts at the
cursor, formats documents and offers quick fixes. The dialect, keyword case
and lint settings come from the configuration, as for every other command.`,
		Example: `  # Start LSP server (usually called by an editor)
  nebulasql lsp

  # Reserve keywords the ANSI way
  nebulasql lsp --ansi-keywords`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd, version)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command, version string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	lintCfg, err := cc.Cfg.BuildLintConfig()
	if err != nil {
		return err
	}
	kc, err := cc.Cfg.ResolveKeywordCase()
	if err != nil {
		return err
	}

	server := lsp.NewServerWithConfig(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.Config{
		Dialect:     cc.Dialect,
		Lint:        lintCfg,
		KeywordCase: kc,
		Version:     version,
		Logger:      cc.Logger,
	})
	return server.Run()
}
