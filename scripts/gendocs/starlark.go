package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ScriptGlobal is a name predeclared in rule scripts.
type ScriptGlobal struct {
	Name        string
	Signature   string
	Description string
}

// getScriptGlobals mirrors the builtins of internal/starlark.
func getScriptGlobals() []ScriptGlobal {
	return []ScriptGlobal{
		{
			Name:      "rule",
			Signature: `rule(id, description, check, severity="warning", rationale="", bad_example="", good_example="", config_keys=[])`,
			Description: "Defines a rule. check is called once per statement with the statement node, " +
				"and with the rule options as a second argument when it declares one.",
		},
		{
			Name:        "diagnostic",
			Signature:   `diagnostic(node, message, fix=None, fix_title="Apply fix")`,
			Description: "Builds a finding that spans node. fix replaces the node's text.",
		},
		{
			Name:        "walk",
			Signature:   `walk(node)`,
			Description: "Lists node and every node below it, depth first.",
		},
	}
}

// nodeAttrs lists the attributes of a node value.
var nodeAttrs = [][]string{
	{"kind", "string", "Node type, e.g. `QuerySpecification` or `MultipartIdentifier`"},
	{"value", "string", "Short text shown in the syntax tree, e.g. a name or an operator"},
	{"line", "int", "1-based start line"},
	{"column", "int", "1-based start column"},
	{"offset", "int", "0-based start byte offset"},
	{"end_line", "int", "1-based end line"},
	{"end_column", "int", "1-based end column"},
	{"end_offset", "int", "0-based end byte offset"},
	{"children", "list", "Child nodes"},
}

// exampleScript is a complete rule file. Tests load it.
const exampleScript = `def _no_tmp(stmt):
    return [
        diagnostic(n, "reads a tmp_ stream", fix = n.value[4:], fix_title = "Drop the tmp_ prefix")
        for n in walk(stmt)
        if n.kind == "MultipartIdentifier" and n.value.startswith("tmp_")
    ]

rule(
    id = "no-tmp-streams",
    description = "Queries should not read scratch streams.",
    check = _no_tmp,
    bad_example = "SELECT a FROM tmp_events",
    good_example = "SELECT a FROM events",
)

def _max_columns(stmt, options):
    limit = options.get("max", 20)
    for n in walk(stmt):
        if n.kind == "SelectClause" and len(n.children) > limit:
            return diagnostic(n, "selects more than %d columns" % limit)
    return None

rule(
    id = "max-columns",
    description = "Limits the width of a projection.",
    check = _max_columns,
    severity = "info",
    config_keys = ["max"],
)
`

// generateStarlarkDocs generates the scripted rules guide.
func generateStarlarkDocs(outDir string) error {
	log.Printf("Generating Starlark docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Scripted Rules", "Writing NebulaSQL lint rules in Starlark")
	w.GeneratedMarker()

	w.Header(1, "Scripted Rules")
	w.Paragraph("Lint rules can be written in Starlark, a Python dialect. List the script files under " +
		"`starlark.rules` in `nebulasql.yaml`; their rules then run next to the built-in ones and are " +
		"configured the same way.")

	w.Header(2, "Builtins")
	for _, g := range getScriptGlobals() {
		w.Header(3, InlineCode(g.Name))
		w.CodeBlock("python", g.Signature)
		w.Paragraph(g.Description)
	}

	w.Header(2, "Nodes")
	w.Paragraph("Check functions receive nodes of the statement's syntax tree, the same tree `nebulasql parse` prints.")
	w.Table([]string{"Attribute", "Type", "Description"}, nodeAttrs)

	w.Header(2, "Example")
	w.CodeBlock("python", exampleScript)
	w.CodeBlock("yaml", `starlark:
  rules:
    - rules/streams.star
lint:
  rules:
    max-columns:
      max: 8`)

	log.Printf("  Generated starlark.md")
	return os.WriteFile(filepath.Join(outDir, "starlark.md"), w.Bytes(), 0600)
}
