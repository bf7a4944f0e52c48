// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package completion provides the transport to the hosted chat-completion
// service. The generation protocol depends only on the Client interface, so
// tests substitute scripted doubles and never touch the network.
package completion

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

	"chatdb/cli/internal/logging"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles accepted by the completion service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client sends a conversation to a text generator and returns the raw
// content of the first choice. Implementations make exactly one attempt per
// call; retrying is a caller decision.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Sentinel errors the generation protocol maps to its reason strings.
var (
	// ErrDecode indicates the response body was not valid JSON.
	ErrDecode = errors.New("completion response is not valid JSON")
	// ErrMalformedResponse indicates a syntactically valid reply with a
	// missing or empty choice list, or a choice without message content.
	ErrMalformedResponse = errors.New("completion response has no usable choice")
)

// StatusError reports a non-2xx reply from the completion service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d", e.Code)
}

// Config holds the settings for the HTTP completion client.
type Config struct {
	// Endpoint is the chat-completions URL.
	Endpoint string
	// APIKey is the bearer token. Required.
	APIKey string
	// Model identifies the generation model.
	Model string
	// MaxTokens bounds the completion length.
	MaxTokens int
	// Temperature is the sampling temperature.
	Temperature float64
	// Timeout bounds each individual request.
	Timeout time.Duration
}

// HTTP is the real client for a bearer-authenticated chat-completion API.
type HTTP struct {
	cfg    Config
	client *http.Client
}

// NewHTTP creates an HTTP completion client. A missing API key is a
// construction-time error: a client that cannot authenticate would fail
// every call anyway.
func NewHTTP(cfg Config) (*HTTP, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("completion: API key is missing")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat-completion request and returns the first choice's
// content. Failures are typed so the caller can distinguish HTTP status,
// transport, body-decode and structure problems.
func (h *HTTP) Complete(ctx context.Context, messages []Message) (string, error) {
	logger := logging.Logger()
	payload := completionRequest{
		Model:       h.cfg.Model,
		Messages:    messages,
		MaxTokens:   h.cfg.MaxTokens,
		Temperature: h.cfg.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("completion: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("completion: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)

	logger.Debug("completion: sending request", "model", h.cfg.Model, "messages", len(messages))
	resp, err := h.client.Do(req)
	if err != nil {
		logger.Error("completion: request failed", "error", logging.Mask(err.Error()))
		return "", fmt.Errorf("completion: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("completion: unexpected status", "status", resp.StatusCode, "body", logging.Mask(string(raw)))
		return "", &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		logger.Error("completion: response decode failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message == nil {
		logger.Error("completion: empty or malformed choices")
		return "", ErrMalformedResponse
	}
	content := decoded.Choices[0].Message.Content
	logger.Debug("completion: request succeeded", "content_length", len(content))
	return content, nil
}
