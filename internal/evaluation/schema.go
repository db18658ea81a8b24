package evaluation

import "github.com/learnedge/learnedge/internal/llm"

// EvaluationSchema defines a graded answer.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Grade and teaching feedback for a student's answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "0 to 100",
			},
			"isCorrect":        map[string]any{"type": "boolean"},
			"feedback":         map[string]any{"type": "string"},
			"explanation":      map[string]any{"type": "string"},
			"analogy":          map[string]any{"type": "string"},
			"memoryTrick":      map[string]any{"type": "string"},
			"realWorldExample": map[string]any{"type": "string"},
			"mistakeAnalysis": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"misconception": map[string]any{"type": "string"},
					"missingPoints": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"correction": map[string]any{"type": "string"},
				},
			},
		},
		"required": []any{"score", "isCorrect", "feedback", "explanation"},
	},
}
