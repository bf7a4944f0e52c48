// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"strconv"

	"chatdb/cli/internal/nlsql"
)

// Info contains parsed information from a DSN string
type Info struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// String returns the original DSN string
func (i *Info) String() string {
	return i.Original
}

// ConnectionParams converts the parsed DSN into the connection shape the
// generation and execution requests carry.
func (i *Info) ConnectionParams() nlsql.ConnectionParams {
	port, err := strconv.Atoi(i.Port)
	if err != nil {
		port = 5432
	}
	return nlsql.ConnectionParams{
		Host:     i.Host,
		DBName:   i.Database,
		Port:     port,
		User:     i.User,
		Password: i.Password,
	}
}

// ParseError represents an error that occurred during DSN parsing
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}
