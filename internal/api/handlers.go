// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"chatdb/cli/internal/logging"
	"chatdb/cli/internal/nlsql"
)

// apiRequest is the body shared by /v1/nl2sql and /v1/exec_sql: a query
// plus optional connection fields. Omitted connection fields fall back to
// server configuration.
type apiRequest struct {
	Query      string `json:"query"`
	Host       string `json:"host"`
	DBName     string `json:"dbname"`
	Port       int    `json:"port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	defer recoverTo502(w)

	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, `Missing "query" field`)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, `Missing "query" field`)
		return
	}

	conn := s.connParams(req)
	outcome := s.gen.Generate(r.Context(), req.Query, conn)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	defer recoverTo502(w)

	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, `Missing "query" field`)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, `Missing "query" field`)
		return
	}

	conn := s.connParams(req)
	if conn.User == "" || conn.Password == "" {
		writeError(w, http.StatusInternalServerError, "Database credentials not provided")
		return
	}

	result, err := s.exec.Run(r.Context(), conn, req.Query)
	if err != nil {
		logging.Logger().Error("api: execution failed", "error", logging.Mask(err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// connParams merges request-supplied connection fields with server defaults.
func (s *Server) connParams(req apiRequest) nlsql.ConnectionParams {
	conn := nlsql.ConnectionParams{
		Host:     req.Host,
		DBName:   req.DBName,
		Port:     req.Port,
		User:     req.DBUser,
		Password: req.DBPassword,
	}
	if conn.Host == "" {
		conn.Host = s.cfg.DefaultHost
	}
	if conn.DBName == "" {
		conn.DBName = s.cfg.DefaultDBName
	}
	if conn.Port == 0 {
		conn.Port = s.cfg.DefaultPort
	}
	if conn.User == "" {
		conn.User = s.cfg.DBUser
	}
	if conn.Password == "" {
		conn.Password = s.cfg.DBPassword
	}
	return conn
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Error("api: encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
