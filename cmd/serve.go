// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"chatdb/cli/internal/api"
	"chatdb/cli/internal/completion"
	"chatdb/cli/internal/config"
	"chatdb/cli/internal/logging"
	"chatdb/cli/internal/nlsql"
	"chatdb/cli/internal/schema"
	"chatdb/cli/internal/sqlexec"
)

var serveListen string

// serveCmd runs the ChatDB backend service in this process. It exposes the
// same HTTP API the hosted backend serves, so the CLI can point at it with
// CHATDB_API_URL.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ChatDB backend service",
	Long: `The serve command starts the HTTP service that converts natural-language
instructions to SQL and executes SQL against PostgreSQL databases.

Configuration comes from the environment (a .env file is loaded when present):
XAI_API_KEY is required; XAI_API_URL, XAI_MODEL, API_TIMEOUT, DB_HOST, DB_NAME,
DB_PORT, DB_USER, DB_PASSWORD and CHATDB_LISTEN are optional.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := config.ServiceFromEnv()
		if err != nil {
			return err
		}
		if serveListen != "" {
			svc.ListenAddr = serveListen
		}
		if svc.ExecURL == "" {
			svc.ExecURL = ownExecURL(svc.ListenAddr)
		}

		chat, err := completion.NewHTTP(completion.Config{
			Endpoint:    svc.APIURL,
			APIKey:      svc.APIKey,
			Model:       svc.Model,
			MaxTokens:   nlsql.MaxTokens,
			Temperature: nlsql.Temperature,
			Timeout:     svc.Timeout,
		})
		if err != nil {
			return err
		}

		fetcher := schema.NewClient(svc.ExecURL, svc.Timeout)
		gen, err := nlsql.NewGenerator(fetcher, chat)
		if err != nil {
			return err
		}

		server, err := api.NewServer(svc, gen, sqlexec.New(svc.Timeout), Version)
		if err != nil {
			return err
		}

		logger := logging.Logger()
		logger.Info("serve: listening", "addr", svc.ListenAddr, "model", svc.Model)
		return http.ListenAndServe(svc.ListenAddr, server)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides CHATDB_LISTEN)")
}

// ownExecURL points the schema fetcher at this process's own execution
// endpoint when no external one is configured.
func ownExecURL(listenAddr string) string {
	addr := listenAddr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return fmt.Sprintf("http://%s/v1/exec_sql", addr)
}
