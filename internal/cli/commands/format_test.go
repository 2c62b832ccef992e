package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/internal/cli/testutil"
)

func TestFormatCommand_Stdin(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		args     []string
		input    string
		expected string
	}{
		{
			name:     "canonical layout",
			input:    "select a from s",
			expected: "SELECT\n  a\nFROM s\n",
		},
		{
			name:     "compact",
			args:     []string{"--compact"},
			input:    "select a from s",
			expected: "SELECT a FROM s\n",
		},
		{
			name:     "lower keywords",
			config:   "keyword_case: lower\n",
			input:    "SELECT a FROM s",
			expected: "select\n  a\nfrom s\n",
		},
		{
			name:     "markdown fences",
			config:   "output: markdown\n",
			args:     []string{"--compact"},
			input:    "select a from s",
			expected: "```sql\nSELECT a FROM s\n```\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config != "" {
				testutil.LoadConfig(t, tt.config)
			}
			out, _, err := testutil.RunCommand(t, NewFormatCommand(), tt.input, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestFormatCommand_JSON(t *testing.T) {
	testutil.LoadConfig(t, "output: json\n")

	out, _, err := testutil.RunCommand(t, NewFormatCommand(), "select a from s")
	require.NoError(t, err)

	var res FormatResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "<stdin>", res.Input)
	assert.Equal(t, "SELECT\n  a\nFROM s\n", res.Formatted)
	assert.True(t, res.Changed)
}

func TestFormatCommand_Check(t *testing.T) {
	dir := testutil.SetupTestWorkspace(t, map[string]string{
		"clean.sql": "SELECT\n  a\nFROM s\n",
		"messy.sql": "select a from s",
	})

	_, _, err := testutil.RunCommand(t, NewFormatCommand(), "", "--check", filepath.Join(dir, "clean.sql"))
	require.NoError(t, err)

	_, errOut, err := testutil.RunCommand(t, NewFormatCommand(), "", "--check", filepath.Join(dir, "messy.sql"))
	require.ErrorIs(t, err, ErrNotFormatted)
	assert.Contains(t, errOut, "is not formatted")
}

func TestFormatCommand_Write(t *testing.T) {
	dir := testutil.SetupTestWorkspace(t, map[string]string{"q.sql": "select a from s where x>1"})
	path := filepath.Join(dir, "q.sql")

	_, _, err := testutil.RunCommand(t, NewFormatCommand(), "", "-w", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  a\nFROM s\nWHERE\n  x > 1\n", string(data))

	t.Run("idempotent", func(t *testing.T) {
		_, _, err := testutil.RunCommand(t, NewFormatCommand(), "", "--check", path)
		require.NoError(t, err)
	})
}

func TestFormatCommand_Errors(t *testing.T) {
	t.Run("write needs a file", func(t *testing.T) {
		_, _, err := testutil.RunCommand(t, NewFormatCommand(), "select a from s", "-w")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--write needs a file")
	})

	t.Run("check and write exclude each other", func(t *testing.T) {
		_, _, err := testutil.RunCommand(t, NewFormatCommand(), "", "--check", "-w", "q.sql")
		require.Error(t, err)
	})

	t.Run("parse error", func(t *testing.T) {
		_, errOut, err := testutil.RunCommand(t, NewFormatCommand(), "SELECT a FROM s WHERE")
		require.Error(t, err)
		assert.Contains(t, errOut, "syntax error")
	})
}
