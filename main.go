// Package main is the entry point for the ChatDB CLI application.
// It converts natural language instructions into SQL through a hosted
// generation service and executes them against PostgreSQL.
package main

import (
	"chatdb/cli/cmd"
)

// main is the entry point for the ChatDB CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
