package questiongen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/llm"
)

// Generator produces question sets through the AI gateway.
type Generator struct {
	gw     *ai.Gateway
	config Config
}

// New creates a Generator.
func New(gw *ai.Gateway, cfg Config) *Generator {
	return &Generator{gw: gw, config: cfg}
}

type questionSetOutput struct {
	Questions []Question `json:"questions"`
}

// Generate returns questions in the order the model produced them, at most
// the requested count. Any question failing a validator rejects the set with
// ai.ErrMalformedResponse.
func (g *Generator) Generate(ctx context.Context, input GenerateInput) ([]Question, error) {
	count := input.Count
	if count <= 0 {
		count = g.config.Count
	}

	raw, err := g.gw.GenerateStructured(ctx, llm.PurposeQuestionGen, ai.Prompt{
		System:      systemPrompt,
		User:        buildUserMessage(input, count),
		Schema:      QuestionSetSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var out questionSetOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	questions := out.Questions
	if len(questions) > count {
		questions = questions[:count]
	}
	for i := range questions {
		q := &questions[i]
		if q.Type != TypeMCQ {
			q.Options = nil
		}
		for _, v := range g.config.Validators {
			if verr := v.Validate(q); verr != nil {
				verr.Index = i
				return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, verr)
			}
		}
	}
	return questions, nil
}
