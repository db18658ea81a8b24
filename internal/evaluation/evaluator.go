// Package evaluation grades a student's answer against the ideal answer.
package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/llm"
)

// Config holds evaluator settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 2048, Temperature: 0.3}
}

// Request is one answer to grade.
type Request struct {
	// Context is the full material text the question came from.
	Context       string
	Question      string
	StudentAnswer string
	IdealAnswer   string
}

// MistakeAnalysis is the optional structured breakdown of what went wrong.
type MistakeAnalysis struct {
	Misconception string   `json:"misconception"`
	MissingPoints []string `json:"missingPoints"`
	Correction    string   `json:"correction"`
}

// Result is a graded answer.
type Result struct {
	Score            int
	IsCorrect        bool
	Feedback         string
	Explanation      string
	Analogy          string
	MemoryTrick      string
	RealWorldExample string
	Mistakes         *MistakeAnalysis
}

// FlattenedFeedback returns Feedback followed by the mistake analysis as
// plain text, or Feedback alone when there is no analysis.
func (r *Result) FlattenedFeedback() string {
	m := r.Mistakes
	if m == nil || (m.Misconception == "" && len(m.MissingPoints) == 0 && m.Correction == "") {
		return r.Feedback
	}

	var b strings.Builder
	b.WriteString(r.Feedback)
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("Mistake analysis:")
	if m.Misconception != "" {
		fmt.Fprintf(&b, "\n- Misconception: %s", m.Misconception)
	}
	if len(m.MissingPoints) > 0 {
		fmt.Fprintf(&b, "\n- Missing: %s", strings.Join(m.MissingPoints, "; "))
	}
	if m.Correction != "" {
		fmt.Fprintf(&b, "\n- Correction: %s", m.Correction)
	}
	return b.String()
}

// Evaluator grades answers through the AI gateway.
type Evaluator struct {
	gw  *ai.Gateway
	cfg Config
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(gw *ai.Gateway, cfg Config) *Evaluator {
	return &Evaluator{gw: gw, cfg: cfg}
}

type evaluationOutput struct {
	Score            float64          `json:"score"`
	IsCorrect        bool             `json:"isCorrect"`
	Feedback         string           `json:"feedback"`
	Explanation      string           `json:"explanation"`
	Analogy          string           `json:"analogy"`
	MemoryTrick      string           `json:"memoryTrick"`
	RealWorldExample string           `json:"realWorldExample"`
	MistakeAnalysis  *MistakeAnalysis `json:"mistakeAnalysis"`
}

// Evaluate grades req. The score is rounded and clamped to 0-100.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	userMsg, err := buildEvaluationMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build evaluation prompt: %w", err)
	}

	raw, err := e.gw.GenerateStructured(ctx, llm.PurposeEvaluation, ai.Prompt{
		System:      evaluationSystemPrompt,
		User:        userMsg,
		Schema:      EvaluationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	var out evaluationOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	return &Result{
		Score:            clampScore(out.Score),
		IsCorrect:        out.IsCorrect,
		Feedback:         out.Feedback,
		Explanation:      out.Explanation,
		Analogy:          out.Analogy,
		MemoryTrick:      out.MemoryTrick,
		RealWorldExample: out.RealWorldExample,
		Mistakes:         out.MistakeAnalysis,
	}, nil
}

func clampScore(s float64) int {
	if math.IsNaN(s) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, s))))
}

const evaluationSystemPrompt = `You are a supportive tutor grading a student's answer.

Instructions:
- Compare the student's answer with the ideal answer, using the study material for context.
- Score from 0 to 100. Partial credit is allowed for SHORT and LONG answers.
- isCorrect is true only when the answer is substantially right.
- Give an analogy, a memory trick and a real-world example that help the concept stick.
- When the answer is wrong or incomplete, fill mistakeAnalysis.`

var evaluationUserTemplate = template.Must(template.New("evaluation").Parse(`Evaluate answer. Return JSON: { "score": 0-100, "isCorrect": boolean, "feedback": "...", "explanation": "...", "analogy": "...", "memoryTrick": "...", "realWorldExample": "...", "mistakeAnalysis": { "misconception": "...", "missingPoints": ["..."], "correction": "..." } }
Question: {{.Question}}
Student: {{.StudentAnswer}}
Ideal: {{.IdealAnswer}}

Material:
{{.Context}}`))

func buildEvaluationMessage(req Request) (string, error) {
	req.Context = ai.Truncate(req.Context)
	var buf bytes.Buffer
	if err := evaluationUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
