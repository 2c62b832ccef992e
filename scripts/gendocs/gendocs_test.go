package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/internal/starlark"
	"github.com/leapstack-labs/nebulasql/internal/testutil"
)

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerateAll(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, generate("all", root, "ignored"))

	for _, rel := range []string{
		"cli/index.md", "cli/check.md", "cli/format.md", "cli/lsp.md",
		"reference/configuration.md",
		"linting/index.md", "linting/rules.md", "linting/starlark.md",
	} {
		doc := readDoc(t, filepath.Join(root, "docs", rel))
		assert.True(t, strings.HasPrefix(doc, "---\ntitle: "), rel)
		assert.Contains(t, doc, generatedHeader, rel)
		assert.Equal(t, 0, strings.Count(doc, "```")%2, "unbalanced fences in %s", rel)
	}
	_, err := os.Stat(filepath.Join(root, "docs", "cli", "help.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generate("cli", "", dir))

	index := readDoc(t, filepath.Join(dir, "index.md"))
	assert.Contains(t, index, "[`check`](/cli/check)")
	assert.Contains(t, index, "`--keyword-case`")
	assert.Contains(t, index, "`NEBULASQL_CACHE__PATH`")
	assert.Contains(t, index, "| `--workers` | `4` | `workers` |")
	assert.Contains(t, index, "| `-o`, `--output` | `auto` | `output` |")
	assert.NotContains(t, index, "NEBULASQL_LINT__SEVERITY`")
	assert.Contains(t, index, `"check failed"`)

	check := readDoc(t, filepath.Join(dir, "check.md"))
	assert.Contains(t, check, "nebulasql check <path>...")
	assert.Contains(t, check, "`--fail-on`")
	assert.Contains(t, check, "nebulasql check --fail-on error queries/")
	assert.Contains(t, check, "## Configuration")
	assert.Contains(t, check, "`cache.path`")
	assert.NotContains(t, check, "`--keyword-case`")

	format := readDoc(t, filepath.Join(dir, "format.md"))
	assert.Contains(t, format, "## Aliases")
	assert.Contains(t, format, "`fmt`")
}

func TestGenerateLintDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateLintDocs(dir))

	rules := readDoc(t, filepath.Join(dir, "rules.md"))
	assert.Contains(t, rules, "## sliding-advance {#sliding-advance}")
	assert.Contains(t, rules, "WINDOW SLIDING(SIZE 1 MIN, ADVANCE BY 5 MIN)")
	assert.Contains(t, rules, "`max_size`")
}

func TestExampleScriptLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.star")
	require.NoError(t, os.WriteFile(path, []byte(exampleScript), 0o600))

	rules, err := starlark.LoadRules(path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "no-tmp-streams", rules[0].ID)
	assert.Equal(t, []string{"max"}, rules[1].ConfigKeys)
}

func TestMarkdownWriter(t *testing.T) {
	w := NewMarkdownWriter()
	w.Header(2, "Title")
	w.Table([]string{"a", "b"}, [][]string{{"x|y", "multi\nline"}})
	w.BulletList([]string{Bold("one"), InlineCode("two")})

	assert.Equal(t, "## Title\n\n"+
		"| a | b |\n| --- | --- |\n| x\\|y | multi line |\n\n"+
		"- **one**\n- `two`\n\n", w.String())
}

func TestCleanExample(t *testing.T) {
	got := cleanExample("  # first\n  nebulasql check q.sql\n\n    indented")
	assert.Equal(t, "# first\nnebulasql check q.sql\n\n  indented", got)
}
