// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema discovers the queryable structure of a target database.
// It is a client of the SQL execution endpoint rather than of the database
// itself: the one fixed information_schema query travels the same path as
// any other statement, so the fetcher needs no driver and no credentials
// handling of its own.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chatdb/cli/internal/logging"
	"chatdb/cli/internal/nlsql"
)

// columnsQuery lists every column of the public schema in the order the
// prompt builder expects.
const columnsQuery = "SELECT table_name, column_name, data_type, ordinal_position\n" +
	"FROM information_schema.columns\n" +
	"WHERE table_schema = 'public'\n" +
	"ORDER BY table_name, ordinal_position;"

// Client fetches schema descriptions through the exec-SQL endpoint.
// One attempt per call; the generation protocol treats any failure here as
// terminal.
type Client struct {
	execURL string
	client  *http.Client
}

// NewClient creates a schema fetcher for the given exec-SQL endpoint URL.
func NewClient(execURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		execURL: strings.TrimRight(execURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type execRequest struct {
	Query string `json:"query"`
	nlsql.ConnectionParams
}

// FetchSchema retrieves the (table, column, type, position) tuples for the
// database identified by conn. Errors carry transport detail for logging;
// callers are expected to replace them with a generic reason before
// surfacing anything to users.
func (c *Client) FetchSchema(ctx context.Context, conn nlsql.ConnectionParams) (nlsql.SchemaDescription, error) {
	logger := logging.Logger()
	body, err := json.Marshal(execRequest{Query: columnsQuery, ConnectionParams: conn})
	if err != nil {
		return nil, fmt.Errorf("schema: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.execURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("schema: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Info("schema: fetching table structure", "host", conn.Host, "dbname", conn.DBName, "port", conn.Port)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schema: exec endpoint returned status %d", resp.StatusCode)
	}

	var entries nlsql.SchemaDescription
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("schema: decode response: %w", err)
	}
	logger.Debug("schema: table structure fetched", "columns", len(entries))
	return entries, nil
}
