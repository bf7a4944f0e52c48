// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"chatdb/cli/internal/backend"
	"chatdb/cli/internal/config"
	"chatdb/cli/internal/dsn"
	"chatdb/cli/internal/endpoints"
	"chatdb/cli/internal/httperrors"
	"chatdb/cli/internal/keychain"
	"chatdb/cli/internal/nlsql"
	"chatdb/cli/internal/xdg"
)

var (
	queryHost       string
	queryDBName     string
	queryPort       int
	queryDBUser     string
	queryDBPassword string
)

// quitWords are the inputs that end the query loop.
var quitWords = map[string]struct{}{
	"quit": {},
	"exit": {},
	"q":    {},
	`\q`:   {},
}

// queryCmd represents the interactive natural-language query loop.
// Each round trips through the backend twice: once to turn the instruction
// into SQL, and, after the user confirms, once to execute it.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query your database in natural language",
	Long: `The query command starts an interactive loop that converts natural-language
instructions into SQL via the ChatDB backend. Each generated statement is shown
for review and only executed after confirmation.

Connection parameters can be given as flags; without them the connection saved
by 'chatdb connect' is used, and without that the backend's demonstration
database answers the queries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn := resolveConnection()

		showAnimatedTitle()
		fmt.Println("\nWelcome to the Natural Language to SQL Query CLI!")
		fmt.Println("Type 'q' to exit the program.")

		if conn == (nlsql.ConnectionParams{}) {
			fmt.Println("\nNote: No database connection parameters provided.")
			fmt.Println("Using example database for demonstration purposes.")
		}

		be := backend.New(endpoints.Resolve())
		reader := bufio.NewReader(os.Stdin)

		for {
			fmt.Println("\nEnter your natural language instruction (or 'q' to exit):")
			fmt.Print("> ")
			line, err := reader.ReadString('\n')
			if err != nil {
				// stdin closed, leave the loop like an explicit quit
				fmt.Println()
				return nil
			}
			instruction := strings.TrimSpace(line)

			if _, quit := quitWords[strings.ToLower(instruction)]; quit {
				return nil
			}
			if instruction == "" {
				fmt.Println("Please enter a valid instruction.")
				continue
			}

			stopDots := startLoadingDots(os.Stdout, "Converting to SQL")
			res, err := be.GenerateSQL(cmd.Context(), instruction, conn)
			stopDots()
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nError: Failed to convert query to SQL - %s\n", err)
				return httperrors.FormatNetworkError(err, "converting your instruction to SQL")
			}

			sqlQuery := strings.Trim(res.SQLQuery, `"`)
			if sqlQuery == "" {
				fmt.Printf("\nUnable to generate SQL instruction. %s\n", res.ErrorReason)
				fmt.Println("Please try refining your instructions.")
				continue
			}

			pterm.Println()
			pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("Generated SQL:"))
			pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("-------------------"))
			fmt.Println(sqlQuery)

			fmt.Println("\nDo you want to execute this SQL instruction? (yes/no/refine)")
			fmt.Print("> ")
			answer, err := reader.ReadString('\n')
			if err != nil {
				fmt.Println()
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "yes":
			case "no", "refine":
				continue
			default:
				fmt.Println("Invalid input. Please enter 'yes', 'no', or 'refine'.")
				continue
			}

			stopDots = startLoadingDots(os.Stdout, "Executing SQL instruction")
			result, err := be.ExecSQL(cmd.Context(), sqlQuery, conn)
			stopDots()
			if err != nil {
				// Database errors can span many lines; the first one carries
				// the message.
				firstLine := strings.SplitN(err.Error(), "\n", 2)[0]
				fmt.Fprintf(os.Stderr, "\nError executing SQL: %s\n", firstLine)
				continue
			}

			appendHistory(instruction, sqlQuery)

			fmt.Println("\nResult:")
			fmt.Println("-------------")
			renderResult(result)
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryHost, "host", "", "Database host")
	queryCmd.Flags().StringVar(&queryDBName, "dbname", "", "Database name")
	queryCmd.Flags().IntVar(&queryPort, "port", 0, "Database port")
	queryCmd.Flags().StringVar(&queryDBUser, "db-user", "", "Database username")
	queryCmd.Flags().StringVar(&queryDBPassword, "db-password", "", "Database password")
}

// resolveConnection builds the connection parameters for this session.
// Flags win; otherwise the connection saved by 'chatdb connect' is used.
// A zero value means the backend decides.
func resolveConnection() nlsql.ConnectionParams {
	if queryHost != "" || queryDBName != "" || queryPort != 0 || queryDBUser != "" || queryDBPassword != "" {
		return nlsql.ConnectionParams{
			Host:     queryHost,
			DBName:   queryDBName,
			Port:     queryPort,
			User:     queryDBUser,
			Password: queryDBPassword,
		}
	}

	km, err := keychain.GetManager()
	if err != nil {
		return nlsql.ConnectionParams{}
	}
	if raw, err := km.LoadDBDSN(); err == nil && strings.TrimSpace(raw) != "" {
		if info, err := dsn.ParseInfo(strings.TrimSpace(raw)); err == nil {
			return info.ConnectionParams()
		}
	}

	// Older setups may carry config-file settings with the password in the
	// keychain and no stored DSN.
	cfg, err := config.Load()
	if err != nil || !cfg.DB.Provided {
		return nlsql.ConnectionParams{}
	}
	password, err := km.LoadDBPassword()
	if err != nil {
		return nlsql.ConnectionParams{}
	}
	return nlsql.ConnectionParams{
		Host:     cfg.DB.Host,
		DBName:   cfg.DB.DBName,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: password,
	}
}

// renderResult prints query output: a table for SELECT rows, the affected
// row count for everything else.
func renderResult(result backend.ExecResult) {
	if !result.Select {
		fmt.Printf("%d row(s) affected.\n", result.RowCount)
		return
	}
	if len(result.Rows) == 0 {
		fmt.Println("No results found.")
		return
	}

	// Column order is not carried by JSON objects; sort for stable output.
	columns := make([]string, 0, len(result.Rows[0]))
	for col := range result.Rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	data := pterm.TableData{columns}
	for _, row := range result.Rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = fmt.Sprint(row[col])
		}
		data = append(data, cells)
	}

	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// appendHistory records an executed instruction in the state directory.
// History is best-effort: failures never interrupt the query loop.
func appendHistory(instruction, sqlQuery string) {
	dir, err := xdg.StateDir()
	if err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "history.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s\t%s\t%s\n", time.Now().Format(time.RFC3339), instruction, sqlQuery)
}
