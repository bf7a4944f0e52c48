// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdb/cli/internal/nlsql"
)

func TestFetchSchema(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"table_name":"accounts","column_name":"accountid","data_type":"text","ordinal_position":1},
			{"table_name":"accounts","column_name":"balance","data_type":"numeric","ordinal_position":2}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	conn := nlsql.ConnectionParams{Host: "db.internal", DBName: "banking", Port: 5432, User: "app", Password: "pw"}
	schema, err := c.FetchSchema(context.Background(), conn)
	require.NoError(t, err)

	require.Len(t, schema, 2)
	assert.Equal(t, "accounts", schema[0].TableName)
	assert.Equal(t, "balance", schema[1].ColumnName)
	assert.Equal(t, 2, schema[1].OrdinalPosition)

	// The request carries the fixed information_schema query plus the
	// connection parameters, flattened into one JSON object.
	assert.Contains(t, gotBody["query"], "information_schema.columns")
	assert.Contains(t, gotBody["query"], "table_schema = 'public'")
	assert.Contains(t, gotBody["query"], "ORDER BY table_name, ordinal_position")
	assert.Equal(t, "db.internal", gotBody["host"])
	assert.Equal(t, "banking", gotBody["dbname"])
	assert.Equal(t, float64(5432), gotBody["port"])
	assert.Equal(t, "app", gotBody["db_user"])
	assert.Equal(t, "pw", gotBody["db_password"])
}

func TestFetchSchemaNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.FetchSchema(context.Background(), nlsql.ConnectionParams{})
	assert.ErrorContains(t, err, "status 500")
}

func TestFetchSchemaBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.FetchSchema(context.Background(), nlsql.ConnectionParams{})
	assert.ErrorContains(t, err, "decode response")
}

func TestFetchSchemaConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // shut down immediately

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchSchema(context.Background(), nlsql.ConnectionParams{})
	assert.Error(t, err)
}
