package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

const (
	replPrompt     = "nebulasql> "
	replContPrompt = "      ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive parse and format loop",
		Long: `Start an interactive session. Each statement (ended by ';') is parsed
and printed in canonical form, as a tree or as tokens. Keyword modes can be
switched on the fly with .ansi and .legacy.`,
		Example: `  nebulasql repl
  nebulasql repl --dialect ansi`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	kc, err := cc.Cfg.ResolveKeywordCase()
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     replHistoryFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := newREPLSession(cc.Dialect, kc, cmd.OutOrStdout(), cmd.ErrOrStderr())
	_, _ = fmt.Fprintf(s.out, "NebulaSQL REPL (dialect: %s)\n", cc.Dialect.Name)
	_, _ = fmt.Fprintln(s.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	return s.loop(rl)
}

func replHistoryFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "nebulasql")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

func newREPLCompleter() *readline.PrefixCompleter {
	onOff := []readline.PrefixCompleterInterface{readline.PcItem("on"), readline.PcItem("off")}
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".format"),
		readline.PcItem(".tree"),
		readline.PcItem(".tokens"),
		readline.PcItem(".ansi", onOff...),
		readline.PcItem(".legacy", onOff...),
	}
	var names []readline.PrefixCompleterInterface
	for _, n := range dialect.List() {
		names = append(names, readline.PcItem(n))
	}
	items = append(items, readline.PcItem(".dialect", names...))
	for _, kw := range token.Keywords() {
		items = append(items, readline.PcItem(kw))
	}
	return readline.NewPrefixCompleter(items...)
}

// lineReader is the part of readline the loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// replView selects how a parsed statement is printed.
type replView string

const (
	viewFormat replView = "format"
	viewTree   replView = "tree"
	viewTokens replView = "tokens"
)

type replSession struct {
	dialect *dialect.Dialect
	caser   format.KeywordCase
	view    replView
	out     io.Writer
	errOut  io.Writer
}

func newREPLSession(d *dialect.Dialect, kc format.KeywordCase, out, errOut io.Writer) *replSession {
	return &replSession{dialect: d, caser: kc, view: viewFormat, out: out, errOut: errOut}
}

// loop reads statements until .quit or EOF. SQL accumulates across lines
// until one ends with ';'.
func (s *replSession) loop(rl lineReader) error {
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := s.dot(line); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)
		s.exec(buf.String())
		buf.Reset()
	}
}

// exec parses sql and prints it in the current view.
func (s *replSession) exec(sql string) {
	if s.view == viewTokens {
		infos, err := lexTokens(sql, false)
		if err != nil {
			_, _ = fmt.Fprintln(s.errOut, parser.FormatErrorContext(sql, err))
			return
		}
		r := output.NewRendererWithTTY(s.out, s.errOut, false, output.ModeText)
		_ = renderTokens(r, infos)
		return
	}

	stmts, err := parser.New(s.dialect).ParseScript(sql)
	if err != nil {
		_, _ = fmt.Fprintln(s.errOut, parser.FormatErrorContext(sql, err))
		return
	}
	for _, stmt := range stmts {
		switch s.view {
		case viewTree:
			_, _ = fmt.Fprint(s.out, format.Tree(stmt).Text())
		default:
			_, _ = fmt.Fprintln(s.out, format.SQL(stmt, format.WithKeywordCase(s.caser)))
		}
	}
}

// dot runs a dot-command and reports whether the session should end.
func (s *replSession) dot(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.ToLower(parts[1])
	}

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(s.out)
	case ".format":
		s.view = viewFormat
	case ".tree":
		s.view = viewTree
	case ".tokens":
		s.view = viewTokens
	case ".ansi", ".legacy":
		on, ok := parseOnOff(arg)
		if !ok {
			_, _ = fmt.Fprintf(s.errOut, "Usage: %s on|off\n", command)
			return false
		}
		if command == ".ansi" {
			s.dialect = s.dialect.With(on, s.dialect.LegacyExponentAsDecimal())
		} else {
			s.dialect = s.dialect.With(s.dialect.AnsiKeywords(), on)
		}
		s.printModes()
	case ".dialect":
		if arg == "" {
			s.printModes()
			return false
		}
		d, err := dialect.Lookup(arg)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		s.dialect = d
		s.printModes()
	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) printModes() {
	_, _ = fmt.Fprintf(s.out, "dialect %s: ansi_keywords=%s legacy_exponent_as_decimal=%s\n",
		s.dialect.Name, onOff(s.dialect.AnsiKeywords()), onOff(s.dialect.LegacyExponentAsDecimal()))
}

func parseOnOff(s string) (bool, bool) {
	switch s {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                 Show this help message
  .format               Print statements in canonical form (default)
  .tree                 Print statements as a syntax tree
  .tokens               Print the token stream
  .ansi on|off          Toggle ANSI keyword reservation
  .legacy on|off        Toggle legacy exponent literals
  .dialect [name]       Show or switch the dialect
  .quit / .exit         Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completes dot-commands and keywords
`
	_, _ = fmt.Fprintln(w, help)
}
