// Package ai is the single entry point for model calls. It turns prompts
// into either free text or parsed JSON, tolerating the chatter and code
// fences models tend to wrap around structured output.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/learnedge/learnedge/internal/llm"
	"github.com/learnedge/learnedge/internal/logger"
)

var (
	// ErrGenerationFailed wraps any failure of the underlying model call.
	ErrGenerationFailed = errors.New("AI generation failed")
	// ErrInvalidFormat means no parseable JSON could be recovered.
	ErrInvalidFormat = errors.New("AI returned invalid data format")
	// ErrMalformedResponse means the JSON parsed but has the wrong shape.
	ErrMalformedResponse = errors.New("malformed AI response")
)

const jsonOnlyInstruction = "IMPORTANT: Return ONLY valid JSON. Do not include markdown formatting or extra text."

// Prompt is one model call.
type Prompt struct {
	System      string
	User        string
	Schema      *llm.Schema
	MaxTokens   int
	Temperature float64
}

// Gateway wraps an llm.Provider. It performs no retries of its own; the
// provider decorator chain decides that.
type Gateway struct {
	provider llm.Provider
	timeout  time.Duration
	log      *logger.Logger
	tracer   trace.Tracer
}

// NewGateway builds a Gateway. A zero timeout means calls are bounded only
// by the caller's context.
func NewGateway(provider llm.Provider, timeout time.Duration, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		provider: provider,
		timeout:  timeout,
		log:      log.With("service", "AIGateway"),
		tracer:   otel.Tracer("github.com/learnedge/learnedge/internal/ai"),
	}
}

// ModelID reports the configured model.
func (g *Gateway) ModelID() string {
	return g.provider.ModelID()
}

// GenerateText returns the model's raw text reply.
func (g *Gateway) GenerateText(ctx context.Context, purpose string, p Prompt) (string, error) {
	ctx, span := g.tracer.Start(ctx, "ai.GenerateText", trace.WithAttributes(attribute.String("ai.purpose", purpose)))
	defer span.End()

	text, err := g.call(ctx, purpose, p.User, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

// GenerateStructured asks for JSON only, extracts the JSON span from the
// reply and, when p.Schema is set, validates it.
func (g *Gateway) GenerateStructured(ctx context.Context, purpose string, p Prompt) (json.RawMessage, error) {
	ctx, span := g.tracer.Start(ctx, "ai.GenerateStructured", trace.WithAttributes(attribute.String("ai.purpose", purpose)))
	defer span.End()

	fail := func(err error) (json.RawMessage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	text, err := g.call(ctx, purpose, p.User+"\n\n"+jsonOnlyInstruction, p)
	if err != nil {
		return fail(err)
	}

	raw, err := ParseJSON(text)
	if err != nil {
		g.log.Warn("could not parse AI JSON", "purpose", purpose, "error", err, "response_chars", len(text))
		return fail(err)
	}

	if p.Schema != nil {
		if err := llm.ValidateJSON(p.Schema, raw); err != nil {
			g.log.Warn("AI JSON failed schema validation", "purpose", purpose, "schema", p.Schema.Name, "error", err)
			return fail(fmt.Errorf("%w: %w", ErrMalformedResponse, err))
		}
	}
	return raw, nil
}

// Ping makes the smallest possible call to confirm the provider answers.
func (g *Gateway) Ping(ctx context.Context) error {
	_, err := g.GenerateText(ctx, llm.PurposeHealth, Prompt{User: "ping", MaxTokens: 16})
	return err
}

func (g *Gateway) call(ctx context.Context, purpose, user string, p Prompt) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, purpose)

	req := llm.Prompt(p.System, user)
	req.Schema = p.Schema
	req.MaxTokens = p.MaxTokens
	req.Temperature = p.Temperature
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return string(resp.Content), nil
}
