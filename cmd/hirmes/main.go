// Package main provides the entry point for the hirmes CLI.
package main

import (
	"os"

	"github.com/hirmes/hirmes/cmd/hirmes/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
