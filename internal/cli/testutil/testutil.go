// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/cli/config"
	"github.com/leapstack-labs/nebulasql/internal/cli/output"
)

// SampleQueries holds a small workspace of streaming queries: two clean
// files and one that trips the hyphenated-identifier rule.
var SampleQueries = map[string]string{
	"queries/counts.sql": "SELECT sensor, COUNT(*) AS n FROM readings GROUP BY sensor WINDOW TUMBLING(60);\n",
	"queries/alerts.sql": "SELECT * FROM readings WHERE celsius > 90 INTO PRINT;\n",
	"queries/legacy.sql": "SELECT a FROM sensor-data;\n",
	"queries/README.txt": "not sql\n",
}

// SetupTestWorkspace writes files (relative path -> content) into a fresh
// temporary directory and returns it. A nil map writes SampleQueries.
func SetupTestWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	if files == nil {
		files = SampleQueries
	}
	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return tmpDir
}

// RunCommand executes cmd with args and stdin, returning what it wrote to
// its output and error streams.
func RunCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// LoadConfig writes content as nebulasql.yaml into a temporary directory
// and loads it as the current config. It returns the file's path.
func LoadConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nebulasql.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := config.LoadConfig(path, nil); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	t.Cleanup(config.ResetConfig)
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates a new test renderer with auto mode detection.
// In tests, non-TTY defaults to markdown output.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// AssertOutputMode checks that the renderer output matches expected mode characteristics.
func AssertOutputMode(t *testing.T, tr *TestRenderer, expectedMode output.Mode) {
	t.Helper()

	combined := tr.Output() + tr.ErrorOutput()
	switch expectedMode {
	case output.ModeMarkdown:
		AssertNoANSI(t, combined)
		AssertValidMarkdown(t, tr.Output())
	case output.ModeJSON, output.ModeYAML:
		AssertNoANSI(t, combined)
	}
}
