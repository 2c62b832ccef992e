// Package main generates the reference documentation of NebulaSQL from its
// source: CLI commands and flags, config keys, lint rules and the Starlark
// rule builtins.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/reference
//	go run ./scripts/gendocs -gen=lint -outdir=docs/linting
//	go run ./scripts/gendocs -gen=starlark -outdir=docs/linting
//	go run ./scripts/gendocs -gen=all
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var (
	genFlag    = flag.String("gen", "all", "what to generate: cli, config, lint, starlark, all")
	outDirFlag = flag.String("outdir", "", "output directory (defaults based on gen type)")
)

// generators maps a -gen value to its generator and default directory
// below docs/.
var generators = map[string]struct {
	run    func(outDir string) error
	subdir string
}{
	"cli":      {generateCLIDocs, "cli"},
	"config":   {generateConfigDocs, "reference"},
	"lint":     {generateLintDocs, "linting"},
	"starlark": {generateStarlarkDocs, "linting"},
}

var generatorOrder = []string{"cli", "config", "lint", "starlark"}

func main() {
	flag.Parse()

	if _, ok := generators[*genFlag]; !ok && *genFlag != "all" {
		log.Fatalf("unknown -gen value: %s (use: cli, config, lint, starlark, all)", *genFlag)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("failed to find project root: %v", err)
	}
	log.Printf("Project root: %s", projectRoot)

	if err := generate(*genFlag, projectRoot, *outDirFlag); err != nil {
		log.Fatal(err)
	}
	log.Println("Done!")
}

// generate runs one generator, or all of them into their default
// directories below root when gen is "all".
func generate(gen, root, outDir string) error {
	names := []string{gen}
	if gen == "all" {
		names = generatorOrder
		outDir = ""
	}
	for _, name := range names {
		g := generators[name]
		dir := outDir
		if dir == "" {
			dir = filepath.Join(root, "docs", g.subdir)
		}
		if err := g.run(dir); err != nil {
			return fmt.Errorf("failed to generate %s docs: %w", name, err)
		}
	}
	return nil
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
