// Package main is the entry point for the philtre CLI.
package main

import (
	"os"

	"github.com/djellemah/philtre/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
