// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"chatdb/cli/internal/logging"
)

// Built-in defaults for the generation service. Every one of them can be
// overridden through the environment.
const (
	DefaultAPIURL = "https://api.x.ai/v1/chat/completions"
	DefaultModel  = "grok-3-beta"

	DefaultDBHost = "chatdb.cxcuaw08ibd5.us-east-2.rds.amazonaws.com"
	DefaultDBName = "banking"
	DefaultDBPort = 5432

	defaultListenAddr = ":8080"
	defaultTimeout    = 10 * time.Second
)

// Service holds the environment-driven configuration for 'chatdb serve'.
type Service struct {
	// APIKey authenticates against the completion service. Required.
	APIKey string
	// APIURL is the chat-completions endpoint.
	APIURL string
	// Model is the generation model identifier.
	Model string
	// Timeout bounds every individual outbound network call.
	Timeout time.Duration
	// ExecURL is where the schema fetcher sends its query. Empty means
	// "this process": serve wires it to its own exec endpoint.
	ExecURL string
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// Connection defaults applied when a request omits them.
	DefaultHost   string
	DefaultDBName string
	DefaultPort   int
	DBUser        string
	DBPassword    string
}

// ServiceFromEnv builds the service configuration from the environment,
// loading a .env file first when one exists (missing file is fine). The
// completion API key has no default: without it the service cannot work, so
// its absence is an error here rather than a failure on the first request.
func ServiceFromEnv() (Service, error) {
	_ = godotenv.Load()
	logger := logging.Logger()

	svc := Service{
		APIKey:        strings.TrimSpace(os.Getenv("XAI_API_KEY")),
		APIURL:        envOr("XAI_API_URL", DefaultAPIURL),
		Model:         envOr("XAI_MODEL", DefaultModel),
		Timeout:       defaultTimeout,
		ExecURL:       strings.TrimSpace(os.Getenv("EXEC_API_URL")),
		ListenAddr:    envOr("CHATDB_LISTEN", defaultListenAddr),
		DefaultHost:   envOr("DB_HOST", DefaultDBHost),
		DefaultDBName: envOr("DB_NAME", DefaultDBName),
		DefaultPort:   DefaultDBPort,
		DBUser:        strings.TrimSpace(os.Getenv("DB_USER")),
		DBPassword:    os.Getenv("DB_PASSWORD"),
	}
	if svc.APIKey == "" {
		return Service{}, errors.New("XAI_API_KEY is missing")
	}

	if v := strings.TrimSpace(os.Getenv("DB_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn("config: invalid DB_PORT, using default", "value", v, "error", err)
		} else {
			svc.DefaultPort = port
		}
	}

	// API_TIMEOUT is in seconds, fractional values allowed.
	if v := strings.TrimSpace(os.Getenv("API_TIMEOUT")); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil || seconds <= 0 {
			logger.Warn("config: invalid API_TIMEOUT, using default", "value", v)
		} else {
			svc.Timeout = time.Duration(seconds * float64(time.Second))
		}
	}

	return svc, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
