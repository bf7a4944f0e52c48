// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatdb/cli/internal/endpoints"
	"chatdb/cli/internal/nlsql"
)

// HTTP implements API over the REST endpoints.
type HTTP struct {
	eps    *endpoints.Endpoints
	client *http.Client
}

// newHTTP creates a new HTTP client for the given endpoints.
// It configures a 10-second timeout for all requests.
func newHTTP(eps *endpoints.Endpoints) *HTTP {
	return &HTTP{
		eps:    eps,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// apiRequest is the body both POST endpoints accept.
type apiRequest struct {
	Query      string `json:"query"`
	Host       string `json:"host,omitempty"`
	DBName     string `json:"dbname,omitempty"`
	Port       int    `json:"port,omitempty"`
	DBUser     string `json:"db_user,omitempty"`
	DBPassword string `json:"db_password,omitempty"`
}

func newAPIRequest(query string, conn nlsql.ConnectionParams) apiRequest {
	return apiRequest{
		Query:      query,
		Host:       conn.Host,
		DBName:     conn.DBName,
		Port:       conn.Port,
		DBUser:     conn.User,
		DBPassword: conn.Password,
	}
}

// GenerateSQL calls POST /nl2sql and returns the generation outcome.
func (h *HTTP) GenerateSQL(ctx context.Context, instruction string, conn nlsql.ConnectionParams) (GenerateResult, error) {
	body, err := h.post(ctx, h.eps.NL2SQLURL(), newAPIRequest(instruction, conn))
	if err != nil {
		return GenerateResult{}, err
	}

	var out GenerateResult
	if err := json.Unmarshal(body, &out); err != nil {
		return GenerateResult{}, fmt.Errorf("decode generation response: %w", err)
	}
	if out.SQLQuery == "" && out.ErrorReason == "" {
		return GenerateResult{}, errors.New("generation response carried neither a query nor a reason")
	}
	return out, nil
}

// ExecSQL calls POST /exec_sql. A SELECT comes back as a JSON array of row
// objects; anything else as a rowcount object. Some deployments wrap the
// rowcount object in a one-element array, so both shapes are accepted.
func (h *HTTP) ExecSQL(ctx context.Context, sql string, conn nlsql.ConnectionParams) (ExecResult, error) {
	body, err := h.post(ctx, h.eps.ExecSQLURL(), newAPIRequest(sql, conn))
	if err != nil {
		return ExecResult{}, err
	}
	return parseExecBody(body)
}

func parseExecBody(body []byte) (ExecResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []map[string]any
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return ExecResult{}, fmt.Errorf("decode execution response: %w", err)
		}
		if len(rows) == 1 {
			if n, ok := rowcountFrom(rows[0]); ok {
				return ExecResult{RowCount: n}, nil
			}
		}
		return ExecResult{Select: true, Rows: rows}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return ExecResult{}, fmt.Errorf("decode execution response: %w", err)
	}
	if n, ok := rowcountFrom(obj); ok {
		return ExecResult{RowCount: n}, nil
	}
	return ExecResult{}, fmt.Errorf("unexpected execution response shape: %s", trimmed)
}

// rowcountFrom reports whether obj is a bare rowcount object.
func rowcountFrom(obj map[string]any) (int64, bool) {
	if len(obj) != 1 {
		return 0, false
	}
	v, ok := obj["rowcount"]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(n), true
}

// GetVersion calls GET /version and returns the version string when available.
// No authentication required. This can be used to check connectivity to the backend service.
func (h *HTTP) GetVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.eps.VersionURL(), nil)
	if err != nil {
		return "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "unknown", nil
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

// post sends a JSON body and returns the raw response. Non-2xx responses
// are turned into errors carrying the backend's error message when one is
// present in the body.
func (h *HTTP) post(ctx context.Context, url string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := errorMessage(body); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return strings.TrimSpace(out.Error)
}
