// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package api exposes the generation and execution endpoints over HTTP.
// The handlers are thin: validation, defaulting of connection parameters,
// and mapping of results to the wire shapes; the actual work lives in
// nlsql and sqlexec.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatdb/cli/internal/config"
	"chatdb/cli/internal/logging"
	"chatdb/cli/internal/nlsql"
	"chatdb/cli/internal/sqlexec"
)

// Generator produces one outcome per natural-language instruction.
type Generator interface {
	Generate(ctx context.Context, instruction string, conn nlsql.ConnectionParams) nlsql.Outcome
}

// Executor runs one SQL statement against a target database.
type Executor interface {
	Run(ctx context.Context, conn nlsql.ConnectionParams, sql string) (sqlexec.Result, error)
}

// Server routes the ChatDB HTTP API.
type Server struct {
	router  chi.Router
	gen     Generator
	exec    Executor
	cfg     config.Service
	version string
}

// NewServer wires the routes. Both collaborators are required.
func NewServer(cfg config.Service, gen Generator, exec Executor, version string) (*Server, error) {
	if gen == nil {
		return nil, errors.New("api: generator required")
	}
	if exec == nil {
		return nil, errors.New("api: executor required")
	}
	s := &Server{
		router:  chi.NewRouter(),
		gen:     gen,
		exec:    exec,
		cfg:     cfg,
		version: version,
	}
	s.router.Use(corsMiddleware)
	s.router.Post("/v1/nl2sql", s.handleGenerate)
	s.router.Post("/v1/exec_sql", s.handleExec)
	s.router.Get("/v1/version", s.handleVersion)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// corsMiddleware adds the permissive CORS headers every response carries and
// answers preflight requests directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverTo502 converts a handler panic into the 502 contract for
// unanticipated conditions, surfacing the panic text for debugging.
func recoverTo502(w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		logging.Logger().Error("api: handler panic", "panic", rec)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": panicText(rec)})
	}
}

func panicText(rec any) string {
	if err, ok := rec.(error); ok {
		return err.Error()
	}
	if s, ok := rec.(string); ok {
		return s
	}
	return "internal error"
}
