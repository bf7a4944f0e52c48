// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/cli/internal/endpoints"
	"chatdb/cli/internal/nlsql"
)

func testClient(srv *httptest.Server) *HTTP {
	return newHTTP(&endpoints.Endpoints{
		BaseURL: srv.URL,
		NL2SQL:  "/nl2sql",
		ExecSQL: "/exec_sql",
		Version: "/version",
	})
}

func testConn() nlsql.ConnectionParams {
	return nlsql.ConnectionParams{
		Host:     "db.internal",
		DBName:   "banking",
		Port:     5432,
		User:     "app",
		Password: "secret",
	}
}

func TestGenerateSQLSendsInstructionAndConnection(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/nl2sql", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"sql_query": "SELECT 1;", "error_reason": ""})
	}))
	defer srv.Close()

	res, err := testClient(srv).GenerateSQL(context.Background(), "count everything", testConn())
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", res.SQLQuery)
	assert.Empty(t, res.ErrorReason)

	assert.Equal(t, "count everything", got["query"])
	assert.Equal(t, "db.internal", got["host"])
	assert.Equal(t, "banking", got["dbname"])
	assert.Equal(t, float64(5432), got["port"])
	assert.Equal(t, "app", got["db_user"])
	assert.Equal(t, "secret", got["db_password"])
}

func TestGenerateSQLFailedOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"sql_query":    "",
			"error_reason": "Failed to fetch table structure",
		})
	}))
	defer srv.Close()

	res, err := testClient(srv).GenerateSQL(context.Background(), "anything", testConn())
	require.NoError(t, err)
	assert.Empty(t, res.SQLQuery)
	assert.Equal(t, "Failed to fetch table structure", res.ErrorReason)
}

func TestGenerateSQLBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": `Missing "query" field`})
	}))
	defer srv.Close()

	_, err := testClient(srv).GenerateSQL(context.Background(), "", testConn())
	require.Error(t, err)
	assert.Equal(t, `Missing "query" field`, err.Error())
}

func TestGenerateSQLEmptyOutcomeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"sql_query": "", "error_reason": ""})
	}))
	defer srv.Close()

	_, err := testClient(srv).GenerateSQL(context.Background(), "anything", testConn())
	require.Error(t, err)
}

func TestExecSQLSelectRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/exec_sql", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Alice"},
			{"id": 2, "name": "Bob"},
		})
	}))
	defer srv.Close()

	res, err := testClient(srv).ExecSQL(context.Background(), "SELECT id, name FROM customers;", testConn())
	require.NoError(t, err)
	assert.True(t, res.Select)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Bob", res.Rows[1]["name"])
}

func TestExecSQLEmptySelect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	res, err := testClient(srv).ExecSQL(context.Background(), "SELECT 1 WHERE false;", testConn())
	require.NoError(t, err)
	assert.True(t, res.Select)
	assert.Empty(t, res.Rows)
}

func TestExecSQLRowcountShapes(t *testing.T) {
	// The bare-object and array-wrapped shapes both resolve to a rowcount.
	for _, body := range []string{`{"rowcount": 7}`, `[{"rowcount": 7}]`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		res, err := testClient(srv).ExecSQL(context.Background(), "DELETE FROM sessions;", testConn())
		srv.Close()
		require.NoError(t, err, "body %s", body)
		assert.False(t, res.Select, "body %s", body)
		assert.Equal(t, int64(7), res.RowCount, "body %s", body)
	}
}

func TestExecSQLErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": `relation "nope" does not exist`})
	}))
	defer srv.Close()

	_, err := testClient(srv).ExecSQL(context.Background(), "SELECT * FROM nope;", testConn())
	require.Error(t, err)
	assert.Equal(t, `relation "nope" does not exist`, err.Error())
}

func TestGetVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/version", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"version": "1.4.0"})
	}))
	defer srv.Close()

	v, err := testClient(srv).GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", v)
}

func TestGetVersionNonOKIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v, err := testClient(srv).GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unknown", v)
}
