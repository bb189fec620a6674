// Package main is the entry point for sparkify-dwh.
package main

import (
	"fmt"
	"os"

	"github.com/sparkify/sparkify-dwh/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
