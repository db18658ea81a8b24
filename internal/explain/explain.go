// Package explain rewrites a topic explanation in a requested style.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/llm"
)

// Style is an explanation register.
type Style string

const (
	StyleSimple  Style = "simple"
	StyleAnalogy Style = "analogy"
	StyleExam    Style = "exam"
	StyleStory   Style = "story"
)

// ErrUnknownStyle is returned for a style outside Styles.
var ErrUnknownStyle = errors.New("unknown explanation style")

var styleInstructions = map[Style]string{
	StyleSimple:  "Explain it as simply as possible, as if to a 12-year-old. Short sentences, no jargon.",
	StyleAnalogy: "Explain it through one extended analogy from everyday life, then map the analogy back to the real terms.",
	StyleExam:    "Explain it the way an exam marker expects it: key definitions, the points that earn marks, and common pitfalls.",
	StyleStory:   "Explain it as a short story in which the concepts are characters or events.",
}

// Styles lists the supported styles.
func Styles() []Style {
	return []Style{StyleSimple, StyleAnalogy, StyleExam, StyleStory}
}

// ParseStyle validates s. An empty string selects StyleSimple.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleSimple, nil
	}
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := styleInstructions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
	return st, nil
}

const systemPrompt = `You are a patient tutor. You explain one topic from a student's study material. Stay faithful to the material and do not introduce facts it contradicts. Answer in plain prose without Markdown headings.`

// Explainer produces style-based explanations.
type Explainer struct {
	gw        *ai.Gateway
	maxTokens int
}

// New creates an Explainer.
func New(gw *ai.Gateway) *Explainer {
	return &Explainer{gw: gw, maxTokens: 1500}
}

// Explain returns an explanation of topic drawn from content.
func (e *Explainer) Explain(ctx context.Context, content, topic string, style Style) (string, error) {
	instruction, ok := styleInstructions[style]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Style: %s\n", instruction)
	b.WriteString("\nMaterial:\n")
	b.WriteString(ai.Truncate(content))

	text, err := e.gw.GenerateText(ctx, llm.PurposeExplain, ai.Prompt{
		System:      systemPrompt,
		User:        b.String(),
		MaxTokens:   e.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("explain topic: %w", err)
	}
	return strings.TrimSpace(text), nil
}
