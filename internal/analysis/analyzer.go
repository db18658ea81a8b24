package analysis

import (
	"context"
	"fmt"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/llm"
)

const systemPrompt = `Act as an expert academic tutor. You break study material into the core concepts and subtopics a student must learn.`

// Analyzer asks the model for a topic breakdown of material content.
type Analyzer struct {
	gw        *ai.Gateway
	maxTokens int
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(gw *ai.Gateway) *Analyzer {
	return &Analyzer{gw: gw, maxTokens: 4096}
}

// Analyze returns the topic analysis of content. Content longer than
// ai.MaxContentChars is truncated before it is sent.
func (a *Analyzer) Analyze(ctx context.Context, content string) (TopicAnalysis, error) {
	raw, err := a.gw.GenerateStructured(ctx, llm.PurposeAnalysis, ai.Prompt{
		System:    systemPrompt,
		User:      buildUserMessage(content),
		Schema:    AnalysisSchema,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze material: %w", err)
	}
	analysis, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return analysis, nil
}

func buildUserMessage(content string) string {
	return `Analyze the following study material and extract the core concepts and subtopics.
Return a JSON object: { "topics": [{ "topic": "Name", "description": "Desc", "difficulty": "EASY" | "MEDIUM" | "HARD" }], "conceptGraph": { "edges": [{ "from": "Topic", "to": "Topic", "relation": "prerequisite" }] } }
Use topic names exactly as they are written in the material where possible.

Content: ` + ai.Truncate(content)
}
