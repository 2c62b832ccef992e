package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// generateLintDocs generates the lint rule reference.
func generateLintDocs(outDir string) error {
	log.Printf("Generating lint docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := lint.GetAll()

	if err := generateLintIndex(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	if err := generateRulesPage(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated rules.md")

	return nil
}

// generateLintIndex generates the main linting overview page.
func generateLintIndex(outDir string, rules []lint.RuleDef) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Linting", "Lint rules for NebulaSQL queries")
	w.GeneratedMarker()

	w.Header(1, "Linting")
	w.Paragraph(fmt.Sprintf("NebulaSQL ships **%d built-in rules**. They run on every parsed statement in %s, "+
		"in the language server and in the HTTP API. More rules can be written in Starlark.",
		len(rules), InlineCode("nebulasql check")))

	w.Header(2, "Rules")
	var rows [][]string
	for _, r := range rules {
		link := fmt.Sprintf("[%s](/linting/rules#%s)", InlineCode(r.ID), r.ID)
		rows = append(rows, []string{link, InlineCode(r.Severity.String()), cleanDescription(r.Description)})
	}
	w.Table([]string{"Rule", "Severity", "Description"}, rows)

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode("error"), "Critical issue that should be fixed"},
			{InlineCode("warning"), "Potential issue that should be reviewed"},
			{InlineCode("info"), "Informational feedback"},
			{InlineCode("hint"), "Suggestion for improvement"},
			{InlineCode("off"), "Rule does not run"},
		},
	)

	w.Header(2, "Configuration")
	w.Paragraph("Rules are configured in `nebulasql.yaml`:")
	w.CodeBlock("yaml", `lint:
  severity:
    hyphenated-identifier: error   # override severity
  disable:
    - sliding-advance              # do not run
  rules:
    window-size-limit:
      max_size: 6h                 # rule-specific option`)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// generateRulesPage documents every rule in full.
func generateRulesPage(outDir string, rules []lint.RuleDef) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Lint Rules", "Built-in lint rules for NebulaSQL")
	w.GeneratedMarker()

	w.Header(1, "Lint Rules")
	for _, rule := range rules {
		writeRuleDoc(w, rule)
	}

	return os.WriteFile(filepath.Join(outDir, "rules.md"), w.Bytes(), 0600)
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule lint.RuleDef) {
	w.Line(fmt.Sprintf("## %s {#%s}", rule.ID, rule.ID))
	w.Newline()

	w.Line(fmt.Sprintf("**Severity:** %s", InlineCode(rule.Severity.String())))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description))

	if rule.Rationale != "" {
		w.Header(4, "Why This Matters")
		w.Paragraph(strings.TrimSpace(rule.Rationale))
	}
	if rule.BadExample != "" {
		w.Header(4, "Bad")
		w.CodeBlock("sql", rule.BadExample)
	}
	if rule.GoodExample != "" {
		w.Header(4, "Good")
		w.CodeBlock("sql", rule.GoodExample)
	}
	if len(rule.ConfigKeys) > 0 {
		w.Header(4, "Configuration")
		w.Paragraph(fmt.Sprintf("This rule accepts the following configuration options: %s",
			InlineCode(strings.Join(rule.ConfigKeys, ", "))))
	}

	w.Line("---")
	w.Newline()
}
