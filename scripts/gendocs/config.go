package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/nebulasql/internal/cli/config"
)

// ConfigField describes one key of nebulasql.yaml.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
}

// getConfigSchema mirrors config.Config. Defaults come from the loader.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "dialect", Type: "string", Default: config.DefaultDialect, Description: "Keyword mode: nebula, ansi or legacy"},
		{Name: "ansi_keywords", Type: "bool", Default: "false", Description: "Reserve keywords the ANSI way on top of the dialect"},
		{Name: "legacy_exponent_as_decimal", Type: "bool", Default: "false", Description: "Read exponent and decimal literals as one legacy decimal kind"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json or yaml"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Debug logging on stderr"},
		{Name: "keyword_case", Type: "string", Default: config.DefaultKeywordCase, Description: "Keyword case of printed SQL: upper or lower"},
		{Name: "workers", Type: "int", Default: fmt.Sprint(config.DefaultWorkers), Description: "Files checked concurrently"},
		{Name: "lint.severity", Type: "map[string]string", Description: "Severity per rule id"},
		{Name: "lint.disable", Type: "[]string", Description: "Rule ids that do not run"},
		{Name: "lint.rules", Type: "map[string]map", Description: "Options per rule id"},
		{Name: "cache.path", Type: "string", Description: "SQLite file caching clean check results; empty disables the cache"},
		{Name: "serve.addr", Type: "string", Default: config.DefaultServeAddr, Description: "Listen address of the HTTP API"},
		{Name: "starlark.rules", Type: "[]string", Description: "Starlark scripts defining extra lint rules"},
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "NebulaSQL configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("NebulaSQL reads `nebulasql.yaml` from the working directory or the closest parent. " +
		"Use `--config` to name another file. Relative paths in the file are resolved against its directory.")

	w.Header(2, "Keys")
	var rows [][]string
	for _, f := range getConfigSchema() {
		def := "-"
		if f.Default != "" {
			def = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, def, f.Description})
	}
	w.Table([]string{"Key", "Type", "Default", "Description"}, rows)

	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `# nebulasql.yaml
dialect: nebula
keyword_case: upper
workers: 8

lint:
  severity:
    hyphenated-identifier: error
  rules:
    window-size-limit:
      max_size: 6h

cache:
  path: .nebulasql/cache.db

serve:
  addr: ${NEBULASQL_ADDR}

starlark:
  rules:
    - rules/streams.star`)

	w.Header(2, "Environment Variables")
	w.Paragraph("Use `${VAR_NAME}` in `cache.path`, `serve.addr` and `starlark.rules` to read environment variables.")

	log.Printf("  Generated configuration.md")
	return os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600)
}
