// Package llm adapts the hosted model APIs to one Provider interface and
// layers retries, event logging and JSON Schema checks on top.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one request to a model.
type Provider interface {
	// Generate sends req. When req.Schema is set the provider asks for JSON
	// through its native structured-output option; Content is still the
	// model's raw output and may need cleanup.
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

// Request is one model call.
type Request struct {
	System string
	// Messages is the conversation so far. Prompt builds the usual
	// single-turn form.
	Messages []Message
	// Schema, when set, asks for JSON of that shape.
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Prompt builds a single-turn request.
func Prompt(system, user string) Request {
	return Request{System: system, Messages: []Message{{Role: RoleUser, Content: user}}}
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name doubles as the validation cache key
// and the OpenAI schema name, so it must be unique; use kebab-case.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is a model reply.
type Response struct {
	// Content is the output exactly as the model returned it.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// checkTruncated rejects structured replies cut off by the token limit;
// half a JSON document never parses, and the retry would only repeat it.
func checkTruncated(req Request, resp *Response) (*Response, error) {
	if req.Schema != nil && resp.StopReason == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: resp.Content}
	}
	return resp, nil
}
