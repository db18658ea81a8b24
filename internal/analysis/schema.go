package analysis

import "github.com/learnedge/learnedge/internal/llm"

// AnalysisSchema describes the wrapped analysis shape requested from the model.
var AnalysisSchema = &llm.Schema{
	Name:        "topic-analysis",
	Description: "Core concepts and subtopics of a study material with a concept graph",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic":       map[string]any{"type": "string", "minLength": 1},
						"description": map[string]any{"type": "string"},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"EASY", "MEDIUM", "HARD"},
						},
					},
					"required": []any{"topic", "description", "difficulty"},
				},
			},
			"conceptGraph": map[string]any{
				"type":        "object",
				"description": "How the topics relate: prerequisite or related-to edges between topic names",
				"properties": map[string]any{
					"edges": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"from":     map[string]any{"type": "string"},
								"to":       map[string]any{"type": "string"},
								"relation": map[string]any{"type": "string"},
							},
							"required": []any{"from", "to", "relation"},
						},
					},
				},
			},
		},
		"required": []any{"topics"},
	},
}
