package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/nebulasql/internal/cli/config"
	"github.com/leapstack-labs/nebulasql/internal/cli/output"
	"github.com/leapstack-labs/nebulasql/internal/state"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// ErrCheckFailed is returned when check finds parse errors or diagnostics
// at or above the --fail-on severity.
var ErrCheckFailed = errors.New("check failed")

// CheckOptions holds options for the check command.
type CheckOptions struct {
	FailOn   string   // severity threshold for a non-zero exit
	Disable  []string // extra rules to disable
	Severity []string // rule=severity overrides
	Watch    bool
	NoCache  bool
	History  bool
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path        string            `json:"path" yaml:"path"`
	Statements  int               `json:"statements" yaml:"statements"`
	Cached      bool              `json:"cached,omitempty" yaml:"cached,omitempty"`
	ParseError  *ParseErrorInfo   `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
	Diagnostics []lint.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	src string
	err error
}

// ParseErrorInfo is the serializable form of a parse error.
type ParseErrorInfo struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Line     int      `json:"line" yaml:"line"`
	Column   int      `json:"column" yaml:"column"`
	Found    string   `json:"found,omitempty" yaml:"found,omitempty"`
	Expected []string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// CheckSummary totals a check run.
type CheckSummary struct {
	Files       int `json:"files" yaml:"files"`
	Cached      int `json:"cached" yaml:"cached"`
	ParseErrors int `json:"parse_errors" yaml:"parse_errors"`
	Errors      int `json:"errors" yaml:"errors"`
	Warnings    int `json:"warnings" yaml:"warnings"`
	Info        int `json:"info" yaml:"info"`
	Hints       int `json:"hints" yaml:"hints"`
}

// Issues returns the number of findings of any kind.
func (s CheckSummary) Issues() int {
	return s.ParseErrors + s.Errors + s.Warnings + s.Info + s.Hints
}

// CheckOutput is the structured output of the check command.
type CheckOutput struct {
	Files   []FileResult `json:"files" yaml:"files"`
	Summary CheckSummary `json:"summary" yaml:"summary"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Parse and lint SQL files",
		Long: `Parse every .sql file under the given paths and run the lint rules on
each statement. Files are checked concurrently (--workers).

Parse errors are shown with the offending line and a caret. When a cache
path is configured (cache.path), files that were clean and have not changed
since the last run are skipped.`,
		Example: `  # Check a directory
  nebulasql check queries/

  # Fail only on errors
  nebulasql check --fail-on error queries/

  # Re-check files as they change
  nebulasql check --watch queries/

  # Treat hyphenated identifiers as errors
  nebulasql check --severity hyphenated-identifier=error q.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "warning", "Lowest severity that fails the run (error, warning, info, hint)")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rules to disable (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.Severity, "severity", nil, "Severity overrides as rule=severity")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Keep running and re-check files when they change")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Ignore the result cache")
	cmd.Flags().BoolVar(&opts.History, "history", false, "Show recent check runs from the cache and exit")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	threshold, ok := lint.ParseSeverity(opts.FailOn)
	if !ok || threshold == lint.SeverityOff {
		return fmt.Errorf("invalid --fail-on %q", opts.FailOn)
	}
	lintCfg, err := buildCheckLintConfig(cc.Cfg, opts)
	if err != nil {
		return err
	}

	var store *state.SQLiteStore
	if cc.Cfg.Cache.Path != "" && !opts.NoCache {
		store = state.NewSQLiteStore(cc.Logger)
		if err := store.Open(cc.Cfg.Cache.Path); err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	if opts.History {
		if store == nil {
			return fmt.Errorf("--history needs a cache (set cache.path)")
		}
		return renderHistory(cc.Renderer, store)
	}
	if len(args) == 0 {
		return fmt.Errorf("no paths given")
	}

	files, err := collectSQLFiles(args)
	if err != nil {
		return err
	}

	c := newChecker(cc.Dialect, lintCfg, cc.Cfg, cc.Logger)
	if store != nil {
		c.store = store
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, summary, err := c.checkAll(ctx, files, cc.Cfg.WorkerCount())
	if err != nil {
		return err
	}
	if err := renderCheck(cc.Renderer, results, summary); err != nil {
		return err
	}

	if opts.Watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Watching for changes (Ctrl+C to stop)..."))
		return watchSQL(ctx, args, cc.Logger, func(path string) {
			res := c.checkFile(path)
			_ = renderCheck(cc.Renderer, []FileResult{res}, summarize([]FileResult{res}))
		})
	}

	if failed(results, threshold) {
		return ErrCheckFailed
	}
	return nil
}

// buildCheckLintConfig layers the command-line rule flags over the config file.
func buildCheckLintConfig(cfg *config.Config, opts *CheckOptions) (*lint.Config, error) {
	lintCfg, err := cfg.BuildLintConfig()
	if err != nil {
		return nil, err
	}
	for _, id := range opts.Disable {
		if _, ok := lintCfg.LookupRule(id); !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		lintCfg.Disable(id)
	}
	for _, pair := range opts.Severity {
		id, sev, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("--severity %q: want rule=severity", pair)
		}
		if _, ok := lintCfg.LookupRule(id); !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		s, ok := lint.ParseSeverity(sev)
		if !ok {
			return nil, fmt.Errorf("--severity %q: invalid severity %q", pair, sev)
		}
		lintCfg.SetSeverity(id, s)
	}
	return lintCfg, nil
}

// collectSQLFiles expands directories to the .sql files below them.
func collectSQLFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && isSQLFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func isSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// checker parses and lints files. It is safe for concurrent use.
type checker struct {
	parser      *parser.Parser
	analyzer    *lint.Analyzer
	store       state.Store
	fingerprint string
	logger      *slog.Logger
}

func newChecker(d *dialect.Dialect, lintCfg *lint.Config, cfg *config.Config, logger *slog.Logger) *checker {
	return &checker{
		parser:      parser.New(d),
		analyzer:    lint.NewAnalyzer(lintCfg),
		fingerprint: checkFingerprint(d, cfg, lintCfg),
		logger:      logger,
	}
}

// checkFingerprint identifies the settings a cached result depends on.
func checkFingerprint(d *dialect.Dialect, cfg *config.Config, lintCfg *lint.Config) string {
	rules := lintCfg.Rules()
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	lintJSON, _ := json.Marshal(lintCfg)
	cfgJSON, _ := json.Marshal(cfg.Lint)
	parts := []string{
		d.Name,
		strconv.FormatBool(d.AnsiKeywords()),
		strconv.FormatBool(d.LegacyExponentAsDecimal()),
		strings.Join(ids, ","),
		string(lintJSON),
		string(cfgJSON),
	}
	// Scripted rules change without changing their ids.
	for _, path := range cfg.Starlark.Rules {
		if data, err := os.ReadFile(path); err == nil {
			parts = append(parts, state.HashContent(data))
		}
	}
	return state.Fingerprint(parts...)
}

// checkAll checks files with at most workers in flight. Results keep the
// order of files.
func (c *checker) checkAll(ctx context.Context, files []string, workers int) ([]FileResult, CheckSummary, error) {
	var run *state.Run
	if c.store != nil {
		var err error
		if run, err = c.store.CreateRun(); err != nil {
			c.logger.Warn("failed to record run", "error", err)
		} else {
			c.logger = c.logger.With("check_run", run.ID)
		}
	}

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.checkFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, CheckSummary{}, err
	}

	summary := summarize(results)
	if run != nil {
		run.Files, run.Cached, run.Issues = summary.Files, summary.Cached, summary.Issues()
		if err := c.store.CompleteRun(run); err != nil {
			c.logger.Warn("failed to record run", "error", err)
		}
	}
	c.logger.Debug("check finished", "files", summary.Files, "cached", summary.Cached, "issues", summary.Issues())
	return results, summary, nil
}

// checkFile checks one file. Read failures are reported as parse errors.
func (c *checker) checkFile(path string) FileResult {
	res := FileResult{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.err = err
		res.ParseError = &ParseErrorInfo{Kind: "read error", Message: err.Error()}
		return res
	}
	res.src = string(data)

	hash := state.HashContent(data)
	if c.store != nil {
		prev, err := c.store.GetResult(path)
		if err != nil {
			c.logger.Warn("cache lookup failed", "file", path, "error", err)
		} else if prev.Fresh(hash, c.fingerprint) {
			res.Cached = true
			res.Statements = prev.Statements
			return res
		}
	}

	stmts, err := c.parser.ParseScript(res.src)
	if err != nil {
		res.err = err
		res.ParseError = parseErrorInfo(err)
		c.logger.Debug("parse failed", "file", path, "error", err)
		return res
	}
	res.Statements = len(stmts)
	res.Diagnostics = c.analyzer.AnalyzeMultiple(stmts)

	if c.store != nil {
		if len(res.Diagnostics) == 0 {
			err = c.store.PutResult(&state.Result{
				FilePath:    path,
				ContentHash: hash,
				Fingerprint: c.fingerprint,
				Statements:  res.Statements,
			})
		} else {
			err = c.store.DeleteResult(path)
		}
		if err != nil {
			c.logger.Warn("cache update failed", "file", path, "error", err)
		}
	}
	return res
}

func parseErrorInfo(err error) *ParseErrorInfo {
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		return &ParseErrorInfo{Kind: "error", Message: err.Error()}
	}
	return &ParseErrorInfo{
		Kind:     pe.Kind.String(),
		Line:     pe.Pos.Line,
		Column:   pe.Pos.Column,
		Found:    pe.Found,
		Expected: pe.Expected,
		Message:  pe.Message,
	}
}

func summarize(results []FileResult) CheckSummary {
	s := CheckSummary{Files: len(results)}
	for _, r := range results {
		if r.Cached {
			s.Cached++
		}
		if r.ParseError != nil {
			s.ParseErrors++
		}
		for _, d := range r.Diagnostics {
			switch d.Severity {
			case lint.SeverityError:
				s.Errors++
			case lint.SeverityWarning:
				s.Warnings++
			case lint.SeverityInfo:
				s.Info++
			case lint.SeverityHint:
				s.Hints++
			}
		}
	}
	return s
}

// failed reports whether any file has a parse error or a diagnostic at or
// above threshold.
func failed(results []FileResult, threshold lint.Severity) bool {
	for _, r := range results {
		if r.ParseError != nil {
			return true
		}
		for _, d := range r.Diagnostics {
			if d.Severity <= threshold {
				return true
			}
		}
	}
	return false
}

func renderCheck(r *output.Renderer, results []FileResult, summary CheckSummary) error {
	if ok, err := r.Structured(CheckOutput{Files: results, Summary: summary}); ok {
		return err
	}

	styles := r.Styles()
	markdown := r.EffectiveMode() == output.ModeMarkdown
	for _, res := range results {
		if res.ParseError == nil && len(res.Diagnostics) == 0 {
			continue
		}
		if markdown {
			r.Println(output.FormatHeader(2, res.Path))
		} else {
			r.Println(styles.Path.Render(res.Path))
		}
		if res.err != nil {
			detail := parser.FormatErrorContext(res.src, res.err)
			if markdown {
				detail = output.FormatCodeBlock("", detail)
			}
			r.Println(detail)
		}
		for _, d := range res.Diagnostics {
			if markdown {
				r.Printf("- `%s` **%s** %s: %s\n", d.Pos, d.Severity, d.Rule, d.Message)
				continue
			}
			r.Printf("  %s  %s  %s  %s\n",
				styles.Muted.Render(fmt.Sprintf("%-7s", d.Pos)),
				severityLabel(styles, d.Severity),
				styles.Bold.Render(d.Rule),
				d.Message,
			)
		}
		r.Println("")
	}

	if summary.Issues() == 0 {
		r.Success(fmt.Sprintf("%d files checked, no issues", summary.Files))
		return nil
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Files", "Cached", "Parse errors", "Errors", "Warnings", "Info", "Hints"})
	t.AppendRow(table.Row{summary.Files, summary.Cached, summary.ParseErrors, summary.Errors, summary.Warnings, summary.Info, summary.Hints})
	if markdown {
		r.Println(t.RenderMarkdown())
		return nil
	}
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
	return nil
}

func severityLabel(styles *output.Styles, sev lint.Severity) string {
	label := fmt.Sprintf("%-7s", sev)
	switch sev {
	case lint.SeverityError:
		return styles.Error.Render(label)
	case lint.SeverityWarning:
		return styles.Warning.Render(label)
	case lint.SeverityInfo:
		return styles.Info.Render(label)
	default:
		return styles.Muted.Render(label)
	}
}

func renderHistory(r *output.Renderer, store state.Store) error {
	runs, err := store.RecentRuns(10)
	if err != nil {
		return err
	}
	if ok, err := r.Structured(runs); ok {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run", "Started", "Files", "Cached", "Issues"})
	for _, run := range runs {
		t.AppendRow(table.Row{run.ID[:8], run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Files, run.Cached, run.Issues})
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(t.RenderMarkdown())
		return nil
	}
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
	return nil
}
