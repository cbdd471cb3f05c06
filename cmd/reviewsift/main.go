// Package main is the entry point for the reviewsift CLI.
package main

import (
	"os"

	"github.com/jmylchreest/reviewsift/cmd/reviewsift/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
