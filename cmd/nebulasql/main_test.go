// Package main provides tests for the NebulaSQL CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/nebulasql/internal/cli"
	"github.com/leapstack-labs/nebulasql/internal/cli/config"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := run(t, "", "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "NebulaSQL") {
		t.Errorf("version output should contain 'NebulaSQL', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := run(t, "", "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}
	for _, want := range []string{"parse", "format", "check", "lsp", "serve"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output should mention %q", want)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	sql := "select sensor, avg(celsius) as c from readings where celsius > -40 " +
		"group by sensor window sliding(ts, size 10 min, advance by 1 min) watermark(ts, 30 sec) " +
		"having c > 20 into print"

	first, err := run(t, sql, "format")
	if err != nil {
		t.Fatalf("format error = %v", err)
	}
	second, err := run(t, first, "format", "--check")
	if err != nil {
		t.Errorf("formatted output is not stable: %v\n%s", err, first)
	}
	_ = second
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.sql")
	if err := os.WriteFile(path, []byte("SELECT a FROM s WINDOW SLIDING(SIZE 1 MIN, ADVANCE BY 5 MIN)"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := run(t, "", "check", path)
	if err == nil {
		t.Fatal("check should fail on a sliding window that skips rows")
	}
	if !strings.Contains(output, "sliding-advance") {
		t.Errorf("check output should name the rule, got: %s", output)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := run(t, "", "explode"); err == nil {
		t.Error("unknown command should fail")
	}
}
