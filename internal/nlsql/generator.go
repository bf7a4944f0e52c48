// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nlsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatdb/cli/internal/completion"
	"chatdb/cli/internal/logging"
)

// Generation request bounds. A low temperature biases the model toward
// literal rule-following, which the sentinel contract depends on.
const (
	// MaxTokens bounds the completion length for both calls.
	MaxTokens = 512
	// Temperature is the sampling temperature for both calls.
	Temperature = 0.2
)

// followUpPrompt asks the model to explain a failed generation. The wording
// mirrors the worked examples in the system prompt so the model recognizes
// the request.
const followUpPrompt = "You failed to generate an SQL query for the instruction: '%s'. " +
	"Please explain why the query could not be generated " +
	"(e.g., non-existent table, invalid column, ambiguous instruction). " +
	"Provide a specific, non-empty explanation."

// state enumerates the phases of one generation run. Each non-terminal state
// owns at most one network call and its failure mapping.
type state int

const (
	stateInit state = iota
	stateSchemaLoaded
	stateFirstCompletion
	stateFollowUpRequested
	stateFollowUpCompletion
	stateDone
)

// Generator runs the two-round negotiation with the completion service:
// generate SQL, and only when the model signals it cannot, ask it once to
// explain why. A Generator holds no per-request state and is safe for
// concurrent use; each Generate call is independent.
type Generator struct {
	fetcher SchemaFetcher
	chat    completion.Client
}

// NewGenerator wires the generation protocol to its two collaborators.
func NewGenerator(fetcher SchemaFetcher, chat completion.Client) (*Generator, error) {
	if fetcher == nil {
		return nil, errors.New("nlsql: schema fetcher is required")
	}
	if chat == nil {
		return nil, errors.New("nlsql: completion client is required")
	}
	return &Generator{fetcher: fetcher, chat: chat}, nil
}

// run carries the state of a single generation request through the machine.
type run struct {
	gen         *Generator
	instruction string
	conn        ConnectionParams

	state        state
	systemPrompt string
	firstRaw     string
	sanitized    string
	outcome      Outcome
}

// Generate converts a natural-language instruction into an Outcome. It makes
// at most three strictly ordered network calls (schema fetch, completion,
// optional follow-up); nothing is retried, and a failure at any step is
// terminal for the request.
func (g *Generator) Generate(ctx context.Context, instruction string, conn ConnectionParams) Outcome {
	r := &run{gen: g, instruction: instruction, conn: conn}
	for r.state != stateDone {
		r.step(ctx)
	}
	return r.outcome
}

// step advances the machine by one transition.
func (r *run) step(ctx context.Context) {
	switch r.state {
	case stateInit:
		r.loadSchema(ctx)
	case stateSchemaLoaded:
		r.requestCompletion(ctx)
	case stateFirstCompletion:
		r.decide()
	case stateFollowUpRequested:
		r.requestExplanation(ctx)
	case stateFollowUpCompletion:
		// requestExplanation already settled the outcome.
		r.state = stateDone
	default:
		r.state = stateDone
	}
}

// terminate moves the run into its terminal state with the given outcome.
func (r *run) terminate(o Outcome) {
	r.outcome = o
	r.state = stateDone
}

// loadSchema performs the Init -> SchemaLoaded transition. A fetch failure
// short-circuits the whole run: the model cannot operate without schema, so
// no completion call is attempted. The underlying error is logged but never
// surfaced, to keep connection details out of responses.
func (r *run) loadSchema(ctx context.Context) {
	logger := logging.Logger()
	schema, err := r.gen.fetcher.FetchSchema(ctx, r.conn)
	if err != nil {
		logger.Error("nlsql: schema fetch failed", "error", logging.Mask(err.Error()))
		r.terminate(Failure(ReasonSchemaFetchFailed))
		return
	}
	logger.Debug("nlsql: schema loaded", "columns", len(schema))
	r.systemPrompt = BuildSystemPrompt(schema)
	r.state = stateSchemaLoaded
}

// requestCompletion performs the SchemaLoaded -> FirstCompletionReceived
// transition: one completion call with the system prompt and the user's
// instruction.
func (r *run) requestCompletion(ctx context.Context) {
	logger := logging.Logger()
	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: r.systemPrompt},
		{Role: completion.RoleUser, Content: r.instruction},
	}
	logger.Info("nlsql: requesting completion", "instruction_length", len(r.instruction))
	content, err := r.gen.chat.Complete(ctx, messages)
	if err != nil {
		r.terminate(Failure(firstCallReason(err)))
		return
	}
	r.firstRaw = content
	r.sanitized = sanitizeCompletion(content)
	logger.Debug("nlsql: completion received", "sanitized_length", len(r.sanitized))
	r.state = stateFirstCompletion
}

// decide routes the sanitized completion: the sentinel moves to the
// follow-up round, anything else is the final SQL. No syntax validation
// happens here; correctness is discovered at execution time.
func (r *run) decide() {
	if isSentinel(r.sanitized) {
		logging.Logger().Info("nlsql: sentinel detected, requesting explanation")
		r.state = stateFollowUpRequested
		return
	}
	r.terminate(Success(r.sanitized))
}

// requestExplanation performs the follow-up round. The full conversation is
// replayed, including the model's own sentinel reply, so the explanation is
// grounded in what the model actually answered. Whatever happens, the final
// outcome is a Failure: the sentinel reply is never surfaced as SQL.
func (r *run) requestExplanation(ctx context.Context) {
	logger := logging.Logger()
	messages := []completion.Message{
		{Role: completion.RoleSystem, Content: r.systemPrompt},
		{Role: completion.RoleUser, Content: r.instruction},
		{Role: completion.RoleAssistant, Content: r.firstRaw},
		{Role: completion.RoleUser, Content: fmt.Sprintf(followUpPrompt, r.instruction)},
	}
	content, err := r.gen.chat.Complete(ctx, messages)
	if err != nil {
		logger.Error("nlsql: follow-up failed", "error", logging.Mask(err.Error()))
		r.terminate(Failure(followUpReason(err)))
		return
	}
	reason := strings.TrimSpace(content)
	if reason == "" {
		logger.Warn("nlsql: follow-up explanation was empty")
	}
	r.outcome = Failure(reason)
	r.state = stateFollowUpCompletion
}

// firstCallReason maps a first-call transport error to its contract reason.
func firstCallReason(err error) string {
	var statusErr *completion.StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("API error: %d", statusErr.Code)
	case errors.Is(err, completion.ErrMalformedResponse):
		return ReasonInvalidStructure
	case errors.Is(err, completion.ErrDecode):
		return ReasonInvalidFormat
	default:
		return ReasonRequestFailed
	}
}

// followUpReason maps a follow-up transport error. Structural problems get
// the default reason so a caller can tell the two rounds apart; status and
// transport failures map the same way as the first call.
func followUpReason(err error) string {
	var statusErr *completion.StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("API error: %d", statusErr.Code)
	case errors.Is(err, completion.ErrMalformedResponse):
		return ReasonUnknown
	case errors.Is(err, completion.ErrDecode):
		return ReasonInvalidFormat
	default:
		return ReasonRequestFailed
	}
}
