// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the ChatDB CLI application.
// It implements subcommands for natural-language querying, connection management,
// and running the backend service using the Cobra CLI framework. The package
// handles command parsing, execution, and provides a rich terminal UI with
// spinners and progress indicators.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatdb/cli/internal/backend"
	"chatdb/cli/internal/endpoints"
)

var (
	showVersion bool
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the ChatDB CLI application.
var rootCmd = &cobra.Command{
	Use:           "chatdb",
	Short:         "ChatDB CLI for querying databases in natural language",
	Long:          `ChatDB is a command-line tool that turns natural-language instructions into SQL, lets you review the generated statement, and executes it against your PostgreSQL database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			ctx := context.Background()
			be := backend.New(endpoints.Resolve())
			backendVersion, err := be.GetVersion(ctx)
			if err != nil {
				backendVersion = "unknown"
			}

			fmt.Printf("chatdb %s\nbackend %s\n", Version, backendVersion)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and backend version information")
}
