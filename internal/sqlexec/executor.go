// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs one SQL statement per request against PostgreSQL and
// normalizes the result for JSON transport: SELECT yields an array of
// column/value row maps, everything else yields an affected-row count.
// Connections are opened per request from explicit connection parameters;
// nothing is pooled or cached across requests.
package sqlexec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"chatdb/cli/internal/logging"
	"chatdb/cli/internal/nlsql"
)

// Result is the normalized outcome of one statement.
type Result struct {
	// Select reports whether the statement produced a row set.
	Select bool
	// Rows holds the row maps for SELECT statements.
	Rows []map[string]any
	// RowCount holds the affected-row count for DML statements.
	RowCount int64
}

// MarshalJSON renders the wire shape the execution endpoint promises:
// a bare JSON array for row sets, {"rowcount": N} for DML.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Select {
		rows := r.Rows
		if rows == nil {
			rows = []map[string]any{}
		}
		return json.Marshal(rows)
	}
	return json.Marshal(map[string]int64{"rowcount": r.RowCount})
}

// Executor opens a connection per request and runs a single statement.
type Executor struct {
	connectTimeout time.Duration
}

// New creates an Executor. connectTimeout bounds connection establishment;
// statement execution is bounded by the request context.
func New(connectTimeout time.Duration) *Executor {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &Executor{connectTimeout: connectTimeout}
}

// Run executes sql against the database identified by conn. The connection
// is closed before Run returns, success or not.
func (e *Executor) Run(ctx context.Context, conn nlsql.ConnectionParams, sql string) (Result, error) {
	logger := logging.Logger()
	connectCtx, cancel := context.WithTimeout(ctx, e.connectTimeout)
	defer cancel()

	db, err := pgx.Connect(connectCtx, buildDSN(conn))
	if err != nil {
		logger.Error("sqlexec: connect failed", "host", conn.Host, "dbname", conn.DBName, "error", logging.Mask(err.Error()))
		return Result{}, fmt.Errorf("connect: %w", err)
	}
	defer db.Close(ctx)

	if isSelect(sql) {
		return e.query(ctx, db, sql)
	}
	return e.exec(ctx, db, sql)
}

func (e *Executor) query(ctx context.Context, db *pgx.Conn, sql string) (Result, error) {
	rows, err := db.Query(ctx, sql)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}

	out := Result{Select: true, Rows: []map[string]any{}}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return Result{}, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(vals[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	logging.Logger().Debug("sqlexec: query complete", "rows", len(out.Rows))
	return out, nil
}

func (e *Executor) exec(ctx context.Context, db *pgx.Conn, sql string) (Result, error) {
	tag, err := db.Exec(ctx, sql)
	if err != nil {
		return Result{}, err
	}
	logging.Logger().Debug("sqlexec: statement complete", "rows_affected", tag.RowsAffected())
	return Result{RowCount: tag.RowsAffected()}, nil
}

// isSelect decides the result shape the way the executor always has: by the
// statement's leading keyword. CTE SELECTs ("WITH ...") also produce rows.
func isSelect(sql string) bool {
	s := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(s, "select") || strings.HasPrefix(s, "with")
}

// buildDSN assembles a postgres URL from explicit parameters, escaping
// credentials that may contain reserved characters.
func buildDSN(conn nlsql.ConnectionParams) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(conn.User),
		url.QueryEscape(conn.Password),
		conn.Host,
		conn.Port,
		conn.DBName,
	)
}

// normalizeValue converts driver types that do not round-trip through JSON
// cleanly. UUIDs arrive as 16-byte arrays; other byte slices are rendered in
// PostgreSQL's hex form.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return formatUUID(val[:])
	case []byte:
		if len(val) == 16 {
			return formatUUID(val)
		}
		return fmt.Sprintf("\\x%x", val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}

func formatUUID(b []byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}
