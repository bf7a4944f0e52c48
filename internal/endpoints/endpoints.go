// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package endpoints handles backend endpoint configuration.
package endpoints

import (
	"os"
	"strings"
)

// defaultBaseURL is the hosted ChatDB API gateway.
const defaultBaseURL = "https://u1gds316me.execute-api.us-east-2.amazonaws.com/v1"

// envBaseURL overrides the base URL, for self-hosted deployments and tests.
const envBaseURL = "CHATDB_API_URL"

// Endpoints describes where the backend lives and which paths it serves.
type Endpoints struct {
	BaseURL string
	NL2SQL  string
	ExecSQL string
	Version string
}

// NL2SQLURL returns the full URL of the generation endpoint.
func (e *Endpoints) NL2SQLURL() string {
	return e.BaseURL + e.NL2SQL
}

// ExecSQLURL returns the full URL of the execution endpoint.
func (e *Endpoints) ExecSQLURL() string {
	return e.BaseURL + e.ExecSQL
}

// VersionURL returns the full URL of the version endpoint.
func (e *Endpoints) VersionURL() string {
	return e.BaseURL + e.Version
}

// Resolve returns the endpoint configuration, using the RAM cache if
// available. The base URL comes from CHATDB_API_URL when set, otherwise
// the hosted gateway is used.
func Resolve() *Endpoints {
	if cached := GetCached(); cached != nil {
		return cached
	}

	base := defaultBaseURL
	if override := strings.TrimSpace(os.Getenv(envBaseURL)); override != "" {
		base = strings.TrimRight(override, "/")
	}

	eps := &Endpoints{
		BaseURL: base,
		NL2SQL:  "/nl2sql",
		ExecSQL: "/exec_sql",
		Version: "/version",
	}
	SetCached(eps)
	return eps
}
