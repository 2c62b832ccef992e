// Package main is the entry point of the nebulasql command.
package main

import (
	"os"

	"github.com/leapstack-labs/nebulasql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
