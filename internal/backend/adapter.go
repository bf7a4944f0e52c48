// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with the ChatDB backend service.
// It defines the API contract for SQL generation, SQL execution, and version checking.
// The package includes both interface definitions and HTTP-based implementations.
package backend

import (
	"context"

	"chatdb/cli/internal/nlsql"
)

// GenerateResult is the backend's answer to a generation request. Exactly
// one of SQLQuery and ErrorReason is non-empty.
type GenerateResult struct {
	SQLQuery    string `json:"sql_query"`
	ErrorReason string `json:"error_reason"`
}

// ExecResult carries the outcome of executing one SQL statement: either
// rows from a SELECT or an affected-row count from everything else.
type ExecResult struct {
	Select   bool
	Rows     []map[string]any
	RowCount int64
}

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide mocks for tests.
type API interface {
	// GenerateSQL asks the backend to turn a natural-language instruction
	// into a SQL statement for the given database.
	GenerateSQL(ctx context.Context, instruction string, conn nlsql.ConnectionParams) (GenerateResult, error)
	// ExecSQL runs a SQL statement against the given database.
	ExecSQL(ctx context.Context, sql string, conn nlsql.ConnectionParams) (ExecResult, error)
	GetVersion(ctx context.Context) (string, error)
}
