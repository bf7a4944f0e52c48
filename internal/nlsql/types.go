// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package nlsql implements the natural-language-to-SQL generation protocol.
// It negotiates between a schema discovery step, a completion request to a
// hosted language model, and a follow-up error-explanation request, and
// always reduces the model's free-text output to a single well-typed
// Outcome: either an executable SQL string or a human-readable reason.
package nlsql

import "context"

// ConnectionParams identifies the target database for a single generation
// request. All fields are required to reach the database; the protocol never
// invents defaults, callers supply them.
type ConnectionParams struct {
	Host     string `json:"host"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	User     string `json:"db_user"`
	Password string `json:"db_password"`
}

// SchemaEntry describes one column of the target database's public schema.
type SchemaEntry struct {
	TableName       string `json:"table_name"`
	ColumnName      string `json:"column_name"`
	DataType        string `json:"data_type"`
	OrdinalPosition int    `json:"ordinal_position"`
}

// SchemaDescription is the full ordered column listing for a database,
// ordered by (table_name, ordinal_position).
type SchemaDescription []SchemaEntry

// SchemaFetcher retrieves the schema description for a database.
// Implementations are expected to make exactly one attempt; the generator
// does not retry.
type SchemaFetcher interface {
	FetchSchema(ctx context.Context, conn ConnectionParams) (SchemaDescription, error)
}

// Reason strings surfaced by the generation protocol. These are part of the
// outward contract; callers and tests match on them verbatim.
const (
	ReasonSchemaFetchFailed = "Failed to fetch table structure"
	ReasonInvalidStructure  = "Invalid API response structure"
	ReasonInvalidFormat     = "Invalid API response format"
	ReasonRequestFailed     = "API request failed"
	ReasonUnknown           = "Failed to determine error reason"
)

// Outcome is the two-shape result of a generation run. Exactly one of SQL
// and Reason is non-empty.
type Outcome struct {
	SQL    string `json:"sql_query"`
	Reason string `json:"error_reason"`
}

// Success builds a successful outcome. An empty SQL string would violate the
// one-field invariant, so it is normalized to a failure with the default
// reason.
func Success(sql string) Outcome {
	if sql == "" {
		return Failure("")
	}
	return Outcome{SQL: sql}
}

// Failure builds a failed outcome. An empty reason is replaced with the
// default reason so callers always get something displayable.
func Failure(reason string) Outcome {
	if reason == "" {
		reason = ReasonUnknown
	}
	return Outcome{Reason: reason}
}

// Failed reports whether the outcome carries a reason instead of SQL.
func (o Outcome) Failed() bool {
	return o.SQL == ""
}
