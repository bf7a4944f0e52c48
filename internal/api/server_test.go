// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/cli/internal/config"
	"chatdb/cli/internal/nlsql"
	"chatdb/cli/internal/sqlexec"
)

type stubGenerator struct {
	outcome  nlsql.Outcome
	panicMsg string

	calls       int
	instruction string
	conn        nlsql.ConnectionParams
}

func (g *stubGenerator) Generate(_ context.Context, instruction string, conn nlsql.ConnectionParams) nlsql.Outcome {
	g.calls++
	g.instruction = instruction
	g.conn = conn
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	return g.outcome
}

type stubExecutor struct {
	result sqlexec.Result
	err    error

	calls int
	conn  nlsql.ConnectionParams
	sql   string
}

func (e *stubExecutor) Run(_ context.Context, conn nlsql.ConnectionParams, sql string) (sqlexec.Result, error) {
	e.calls++
	e.conn = conn
	e.sql = sql
	if e.err != nil {
		return sqlexec.Result{}, e.err
	}
	return e.result, nil
}

func testConfig() config.Service {
	return config.Service{
		DefaultHost:   "db.internal",
		DefaultDBName: "banking",
		DefaultPort:   5432,
		DBUser:        "svc",
		DBPassword:    "secret",
	}
}

func newTestServer(t *testing.T, gen *stubGenerator, exec *stubExecutor) *Server {
	t.Helper()
	s, err := NewServer(testConfig(), gen, exec, "1.2.3")
	require.NoError(t, err)
	return s
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	if _, err := NewServer(testConfig(), nil, &stubExecutor{}, "dev"); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if _, err := NewServer(testConfig(), &stubGenerator{}, nil, "dev"); err == nil {
		t.Fatal("expected error for nil executor")
	}
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{outcome: nlsql.Success("SELECT balance FROM accounts;")}
	s := newTestServer(t, gen, &stubExecutor{})

	rec := postJSON(t, s, "/v1/nl2sql", `{"query":"Show all balances"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out struct {
		SQLQuery    string `json:"sql_query"`
		ErrorReason string `json:"error_reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "SELECT balance FROM accounts;", out.SQLQuery)
	assert.Empty(t, out.ErrorReason)
	assert.Equal(t, "Show all balances", gen.instruction)
}

func TestGenerateFailedOutcomeStill200(t *testing.T) {
	gen := &stubGenerator{outcome: nlsql.Failure("Failed to fetch table structure")}
	s := newTestServer(t, gen, &stubExecutor{})

	rec := postJSON(t, s, "/v1/nl2sql", `{"query":"Show all balances"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "", out["sql_query"])
	assert.Equal(t, "Failed to fetch table structure", out["error_reason"])
}

func TestGenerateMissingQuery(t *testing.T) {
	gen := &stubGenerator{}
	s := newTestServer(t, gen, &stubExecutor{})

	for _, body := range []string{`{}`, `{"query":"   "}`, `not json`} {
		rec := postJSON(t, s, "/v1/nl2sql", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		var out map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, `Missing "query" field`, out["error"])
	}
	assert.Zero(t, gen.calls)
}

func TestGenerateDefaultsConnectionFields(t *testing.T) {
	gen := &stubGenerator{outcome: nlsql.Success("SELECT 1;")}
	s := newTestServer(t, gen, &stubExecutor{})

	postJSON(t, s, "/v1/nl2sql", `{"query":"count rows","dbname":"analytics"}`)

	assert.Equal(t, "db.internal", gen.conn.Host)
	assert.Equal(t, "analytics", gen.conn.DBName)
	assert.Equal(t, 5432, gen.conn.Port)
	assert.Equal(t, "svc", gen.conn.User)
	assert.Equal(t, "secret", gen.conn.Password)
}

func TestGeneratePanicBecomes502(t *testing.T) {
	gen := &stubGenerator{panicMsg: "schema cache corrupted"}
	s := newTestServer(t, gen, &stubExecutor{})

	rec := postJSON(t, s, "/v1/nl2sql", `{"query":"anything"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "schema cache corrupted", out["error"])
}

func TestExecSelectReturnsRows(t *testing.T) {
	exec := &stubExecutor{result: sqlexec.Result{
		Select: true,
		Rows: []map[string]any{
			{"id": float64(1), "name": "Alice"},
		},
	}}
	s := newTestServer(t, &stubGenerator{}, exec)

	rec := postJSON(t, s, "/v1/exec_sql", `{"query":"SELECT id, name FROM customers;"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0]["name"])
	assert.Equal(t, "SELECT id, name FROM customers;", exec.sql)
}

func TestExecNonSelectReturnsRowcount(t *testing.T) {
	exec := &stubExecutor{result: sqlexec.Result{RowCount: 3}}
	s := newTestServer(t, &stubGenerator{}, exec)

	rec := postJSON(t, s, "/v1/exec_sql", `{"query":"DELETE FROM sessions;"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rowcount":3}`, rec.Body.String())
}

func TestExecMissingQuery(t *testing.T) {
	exec := &stubExecutor{}
	s := newTestServer(t, &stubGenerator{}, exec)

	rec := postJSON(t, s, "/v1/exec_sql", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, `Missing "query" field`, out["error"])
	assert.Zero(t, exec.calls)
}

func TestExecMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.DBUser = ""
	cfg.DBPassword = ""
	exec := &stubExecutor{}
	s, err := NewServer(cfg, &stubGenerator{}, exec, "dev")
	require.NoError(t, err)

	rec := postJSON(t, s, "/v1/exec_sql", `{"query":"SELECT 1;"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Database credentials not provided", out["error"])
	assert.Zero(t, exec.calls)
}

func TestExecDatabaseError(t *testing.T) {
	exec := &stubExecutor{err: assert.AnError}
	s := newTestServer(t, &stubGenerator{}, exec)

	rec := postJSON(t, s, "/v1/exec_sql", `{"query":"SELECT broken;"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, assert.AnError.Error(), out["error"])
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, &stubExecutor{})

	req := httptest.NewRequest(http.MethodGet, "/v1/version", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t, &stubGenerator{outcome: nlsql.Success("SELECT 1;")}, &stubExecutor{})

	rec := postJSON(t, s, "/v1/nl2sql", `{"query":"anything"}`)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/v1/nl2sql", nil)
	pre := httptest.NewRecorder()
	s.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Methods"), "POST")
}
