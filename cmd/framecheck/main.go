// Package main provides the framecheck CLI.
package main

import (
	"os"

	"github.com/framecheck-labs/framecheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
