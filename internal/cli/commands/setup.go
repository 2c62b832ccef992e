package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/config"
	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Dialect  *dialect.Dialect
	Renderer *output.Renderer
}

// NewCommandContext resolves the configured dialect and builds a renderer
// writing to the command's streams.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	d, err := cfg.ResolveDialect()
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Dialect:  d,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// getConfig returns the current configuration, or the defaults when the
// command runs outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

// readInput reads the SQL named by args: a file path, or stdin for "-" or
// no argument. The returned name labels diagnostics.
func readInput(cmd *cobra.Command, args []string) (name, src string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}
