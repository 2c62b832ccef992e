package commands

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/internal/cli/testutil"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestLSPCommand_Lifecycle(t *testing.T) {
	input := strings.Join([]string{
		frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`),
		frame(`{"jsonrpc":"2.0","method":"initialized","params":{}}`),
		frame(`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///q.sql","languageId":"sql","version":1,"text":"SELECT a FROM sensor-data"}}}`),
		frame(`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`),
		frame(`{"jsonrpc":"2.0","method":"exit"}`),
	}, "")

	out, _, err := testutil.RunCommand(t, NewLSPCommand("1.2.3"), input)
	require.NoError(t, err)

	assert.Contains(t, out, `"name":"nebulasql"`)
	assert.Contains(t, out, `"version":"1.2.3"`)
	assert.Contains(t, out, "textDocument/publishDiagnostics")
	assert.Contains(t, out, "hyphenated-identifier")
}

func TestLSPCommand_ConfigErrors(t *testing.T) {
	testutil.LoadConfig(t, "lint:\n  disable:\n    - no-such-rule\n")

	_, _, err := testutil.RunCommand(t, NewLSPCommand("dev"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-rule")
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Example)
	for _, flag := range []string{"addr", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	_, _, err := testutil.RunCommand(t, cmd, "", "extra")
	require.Error(t, err)
}
