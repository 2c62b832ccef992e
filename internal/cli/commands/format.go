package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/format"
)

// ErrNotFormatted is returned by format --check when the input would change.
var ErrNotFormatted = errors.New("input is not formatted")

// FormatOptions holds options for the format command.
type FormatOptions struct {
	Check   bool // report instead of print
	Write   bool // rewrite the file in place
	Compact bool // one line per statement
}

// FormatResult is the structured output of the format command.
type FormatResult struct {
	Input     string `json:"input" yaml:"input"`
	Formatted string `json:"formatted" yaml:"formatted"`
	Changed   bool   `json:"changed" yaml:"changed"`
}

// NewFormatCommand creates the format command.
func NewFormatCommand() *cobra.Command {
	opts := &FormatOptions{}
	cmd := &cobra.Command{
		Use:   "format [file|-]",
		Short: "Print SQL in canonical form",
		Long: `Parse SQL and print it in canonical form: one clause per line, indented
lists and sub-queries, keywords in the configured case (--keyword-case).
Comments are kept. Formatting is idempotent.`,
		Example: `  # Format a file to stdout
  nebulasql format query.sql

  # Rewrite in place
  nebulasql format -w query.sql

  # Fail in CI when a file is not formatted
  nebulasql format --check query.sql`,
		Aliases: []string{"fmt"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "Exit non-zero if the input is not already formatted")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to the file")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "Print each statement on one line")
	cmd.MarkFlagsMutuallyExclusive("check", "write")

	return cmd
}

func runFormat(cmd *cobra.Command, args []string, opts *FormatOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if opts.Write && (len(args) == 0 || args[0] == "-") {
		return fmt.Errorf("--write needs a file argument")
	}
	kc, err := cc.Cfg.ResolveKeywordCase()
	if err != nil {
		return err
	}
	name, src, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	fopts := []format.Option{format.WithKeywordCase(kc)}
	if opts.Compact {
		fopts = append(fopts, format.Compact())
	}
	formatted, err := format.Format(src, cc.Dialect, fopts...)
	if err != nil {
		return reportParseError(cc.Renderer, name, src, err)
	}
	if opts.Compact && formatted != "" {
		formatted += "\n"
	}
	changed := formatted != src

	r := cc.Renderer
	switch {
	case opts.Check:
		if changed {
			r.Warning(name + " is not formatted")
			return ErrNotFormatted
		}
		r.Success(name + " is formatted")
		return nil
	case opts.Write:
		if !changed {
			cc.Logger.Debug("already formatted", "file", name)
			return nil
		}
		info, err := os.Stat(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, []byte(formatted), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		r.Success("formatted " + name)
		return nil
	}

	if ok, err := r.Structured(FormatResult{Input: name, Formatted: formatted, Changed: changed}); ok {
		return err
	}
	if r.EffectiveMode() == output.ModeMarkdown && r.Mode() == output.ModeMarkdown {
		r.Println(output.FormatCodeBlock("sql", formatted))
		return nil
	}
	_, err = fmt.Fprint(r.Writer(), formatted)
	return err
}
