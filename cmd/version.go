// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatdb/cli/internal/backend"
	"chatdb/cli/internal/endpoints"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

// versionCmd mirrors the --version flag as a subcommand.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and backend version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		be := backend.New(endpoints.Resolve())
		backendVersion, err := be.GetVersion(cmd.Context())
		if err != nil {
			backendVersion = "unknown"
		}
		fmt.Printf("chatdb %s\nbackend %s\n", Version, backendVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
