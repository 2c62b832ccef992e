package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/internal/cli/testutil"
	"github.com/leapstack-labs/nebulasql/pkg/format"
)

func TestParseCommand_Markdown(t *testing.T) {
	out, _, err := testutil.RunCommand(t, NewParseCommand(), "SELECT a FROM s WINDOW TUMBLING(10)")
	require.NoError(t, err)

	assert.Contains(t, out, "```")
	assert.Contains(t, out, "SingleStatement")
	assert.Contains(t, out, "CountWindow")
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
}

func TestParseCommand_JSON(t *testing.T) {
	testutil.LoadConfig(t, "output: json\n")

	out, _, err := testutil.RunCommand(t, NewParseCommand(), "SELECT a FROM s INTO PRINT")
	require.NoError(t, err)

	var tree format.TreeNode
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "SingleStatement", tree.Kind)
	assert.Equal(t, "1:1", tree.Pos)
	assert.NotEmpty(t, tree.Children)
}

func TestParseCommand_ScriptJSON(t *testing.T) {
	testutil.LoadConfig(t, "output: json\n")

	out, _, err := testutil.RunCommand(t, NewParseCommand(), "SELECT a FROM s; SELECT b FROM t;")
	require.NoError(t, err)

	var trees []format.TreeNode
	require.NoError(t, json.Unmarshal([]byte(out), &trees))
	assert.Len(t, trees, 2)
}

func TestParseCommand_Expression(t *testing.T) {
	testutil.LoadConfig(t, "output: json\n")

	out, _, err := testutil.RunCommand(t, NewParseCommand(), "a + 1", "--expr")
	require.NoError(t, err)

	var tree format.TreeNode
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "BinaryExpr", tree.Kind)
	assert.Equal(t, "+", tree.Value)
}

func TestParseCommand_File(t *testing.T) {
	dir := testutil.SetupTestWorkspace(t, nil)

	out, _, err := testutil.RunCommand(t, NewParseCommand(), "", filepath.Join(dir, "queries", "alerts.sql"))
	require.NoError(t, err)
	assert.Contains(t, out, "PrintSink")
}

func TestParseCommand_Errors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		out, errOut, err := testutil.RunCommand(t, NewParseCommand(), "SELECT a\nFROM")
		require.Error(t, err)
		assert.Equal(t, "<stdin>: parse failed", err.Error())
		assert.Empty(t, out)
		assert.Contains(t, errOut, "syntax error")
		assert.Contains(t, errOut, "   2 | FROM")
		assert.Contains(t, errOut, "^")
	})

	t.Run("missing file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.sql")
		_, _, err := testutil.RunCommand(t, NewParseCommand(), "", missing)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("too many args", func(t *testing.T) {
		_, _, err := testutil.RunCommand(t, NewParseCommand(), "", "a.sql", "b.sql")
		require.Error(t, err)
	})
}
