// Package main is the entry point for streamingapp.
package main

import (
	"fmt"
	"io"
	"os"

	"streamingapp/cmd"
	"streamingapp/util"
)

// main is the entry point.
func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints a command failure with credentials scrubbed.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", util.SanitizeError(err))
}
