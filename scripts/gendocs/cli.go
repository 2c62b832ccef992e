package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/nebulasql/internal/cli"
	"github.com/leapstack-labs/nebulasql/internal/cli/commands"
	"github.com/leapstack-labs/nebulasql/internal/cli/config"
)

// commandConfig lists the config keys each command reads beyond the
// global ones.
var commandConfig = map[string][]string{
	"check":  {"workers", "lint.severity", "lint.disable", "lint.rules", "cache.path", "starlark.rules"},
	"format": {"keyword_case"},
	"lsp":    {"lint.severity", "lint.disable", "lint.rules", "starlark.rules"},
	"repl":   {"keyword_case"},
	"rules":  {"lint.severity", "lint.disable", "lint.rules", "starlark.rules"},
	"serve":  {"serve.addr", "keyword_case", "lint.severity", "lint.disable", "lint.rules", "starlark.rules"},
}

// keyIndex maps config keys to their schema entry.
type keyIndex map[string]ConfigField

func newKeyIndex() keyIndex {
	idx := make(keyIndex)
	for _, f := range getConfigSchema() {
		idx[f.Name] = f
	}
	return idx
}

// forFlag returns the config key a persistent flag overrides. The loader
// maps --keyword-case to keyword_case and so on.
func (idx keyIndex) forFlag(f *pflag.Flag) (ConfigField, bool) {
	field, ok := idx[strings.ReplaceAll(f.Name, "-", "_")]
	return field, ok
}

// envVar is the environment variable that sets key.
func envVar(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// documentedCommands returns the visible subcommands of root.
func documentedCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// generateCLIDocs writes index.md plus one page per command.
func generateCLIDocs(outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}

	root := cli.NewRootCmd()
	keys := newKeyIndex()

	pages := map[string][]byte{"index.md": cliIndex(root, keys)}
	for _, cmd := range documentedCommands(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd, keys)
	}

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(outDir, name), pages[name], 0o600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	log.Printf("wrote %d CLI pages to %s", len(pages), outDir)
	return nil
}

func cliIndex(root *cobra.Command, keys keyIndex) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for NebulaSQL")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("The nebulasql command parses, formats and lints streaming SQL, and serves the same features to editors and over HTTP.")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/nebulasql/cmd/nebulasql@latest\nnebulasql <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documentedCommands(root) {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name()),
			cleanDescription(cmd.Short),
		})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Paragraph("Every command accepts these flags. A flag that is set wins over the config key it overrides.")
	writeFlagsTable(w, root.PersistentFlags(), keys)

	w.Header(2, "Environment Variables")
	w.Paragraph(fmt.Sprintf("Any scalar or list key can come from the environment with the %s prefix; "+
		"a double underscore separates nested keys. Precedence is defaults, then the config file, "+
		"then the environment, then flags.", InlineCode(config.EnvPrefix)))
	rows = nil
	for _, f := range getConfigSchema() {
		if strings.HasPrefix(f.Type, "map") {
			continue
		}
		rows = append(rows, []string{InlineCode(envVar(f.Name)), InlineCode(f.Name)})
	}
	w.Table([]string{"Variable", "Config key"}, rows)

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), fmt.Sprintf("Any error, including %q from check and %q from format --check",
			commands.ErrCheckFailed.Error(), commands.ErrNotFormatted.Error())},
	})
	return w.Bytes()
}

func commandPage(cmd *cobra.Command, keys keyIndex) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	w.Paragraph(firstNonEmpty(cmd.Long, cmd.Short))

	w.Header(2, "Usage")
	usage := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		usage = "nebulasql " + cmd.Name() + " <subcommand> [options]"
	}
	w.CodeBlock("bash", usage)

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.BulletList(aliases)
	}

	if subs := documentedCommands(cmd); len(subs) > 0 {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range subs {
			rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalNonPersistentFlags(), keys)
	}
	w.Paragraph("Global options are listed in the [CLI reference](/cli/).")

	if related := commandConfig[cmd.Name()]; len(related) > 0 {
		w.Header(2, "Configuration")
		var rows [][]string
		for _, key := range related {
			f := keys[key]
			rows = append(rows, []string{InlineCode(f.Name), f.Type, f.Description})
		}
		w.Table([]string{"Key", "Type", "Description"}, rows)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w.Bytes()
}

// writeFlagsTable lists flags with the config key each one overrides. The
// shown default is the config default when the flag has none of its own.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet, keys keyIndex) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}

		def, key := f.DefValue, "-"
		if field, ok := keys.forFlag(f); ok {
			key = InlineCode(field.Name)
			if field.Default != "" {
				def = field.Default
			}
		}
		switch def {
		case "", "0", "[]":
			def = "-"
		case "true", "false":
		default:
			def = InlineCode(def)
		}
		rows = append(rows, []string{name, def, key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Default", "Config key", "Description"}, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		body := strings.TrimLeft(line, " \t")
		if body == "" {
			continue
		}
		if n := len(line) - len(body); indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(example)
	}
	for i, line := range lines {
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		lines[i] = line[min(indent, lead):]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
