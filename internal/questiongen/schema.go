package questiongen

import "github.com/learnedge/learnedge/internal/llm"

// QuestionSetSchema describes a generated question set.
var QuestionSetSchema = &llm.Schema{
	Name:        "question-set",
	Description: "A set of exam questions drawn from study material",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []any{TypeMCQ, TypeShort, TypeLong},
						},
						"questionText": map[string]any{"type": "string", "minLength": 1},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"EASY", "MEDIUM", "HARD"},
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Four options for MCQ. Empty for SHORT and LONG.",
						},
						"correctAnswer": map[string]any{"type": "string", "minLength": 1},
						"explanation":   map[string]any{"type": "string"},
						"subTopic":      map[string]any{"type": "string"},
					},
					"required": []any{"type", "questionText", "difficulty", "correctAnswer", "explanation", "subTopic"},
				},
			},
		},
		"required": []any{"questions"},
	},
}
