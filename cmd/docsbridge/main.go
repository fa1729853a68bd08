// Package main provides the entry point for the docsbridge MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/opencode-ai/docsbridge/cmd/docsbridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
