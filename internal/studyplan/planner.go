// Package studyplan generates day-by-day study schedules.
package studyplan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/llm"
)

// Day is one day of a plan.
type Day struct {
	Day     int    `json:"day"`
	Focus   string `json:"focus"`
	Tasks   []Task `json:"tasks"`
	Minutes int    `json:"minutes"`
}

// Task is one activity within a day.
type Task struct {
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
}

// Input is what a plan is generated from.
type Input struct {
	Content      string
	DailyMinutes int
	// SyllabusSize is a free-form descriptor such as "small" or "2 chapters".
	SyllabusSize string
}

var dayDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"day":     map[string]any{"type": "integer", "minimum": 1},
		"focus":   map[string]any{"type": "string"},
		"minutes": map[string]any{"type": "integer"},
		"tasks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":   map[string]any{"type": "string"},
					"minutes": map[string]any{"type": "integer"},
				},
				"required": []any{"title"},
			},
		},
	},
	"required": []any{"day", "focus", "tasks"},
}

// PlanSchema describes the generated schedule.
var PlanSchema = &llm.Schema{
	Name:        "study-plan",
	Description: "A day-by-day study schedule",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    dayDefinition,
			},
		},
		"required": []any{"days"},
	},
}

const systemPrompt = `You are a study coach. You turn study material into a realistic day-by-day plan that fits the student's daily time budget.`

// Planner generates plans through the AI gateway.
type Planner struct {
	gw *ai.Gateway
}

// New creates a Planner.
func New(gw *ai.Gateway) *Planner {
	return &Planner{gw: gw}
}

// Plan returns the generated array of day objects exactly as the model
// wrote it, after validating its shape. Feasibility against the time budget
// is not checked.
func (p *Planner) Plan(ctx context.Context, in Input) (json.RawMessage, error) {
	user := fmt.Sprintf(`Create a day-by-day study plan.
Daily time budget: %d minutes.
Syllabus size: %s.
Return a JSON object: { "days": [{ "day": 1, "focus": "...", "minutes": 60, "tasks": [{ "title": "...", "minutes": 20 }] }] }

Content: %s`, in.DailyMinutes, in.SyllabusSize, ai.Truncate(in.Content))

	raw, err := p.gw.GenerateStructured(ctx, llm.PurposeStudyPlan, ai.Prompt{
		System:    systemPrompt,
		User:      user,
		Schema:    PlanSchema,
		MaxTokens: 4096,
	})
	if err != nil {
		return nil, fmt.Errorf("generate study plan: %w", err)
	}

	var out struct {
		Days json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return out.Days, nil
}

// Decode parses stored plan tasks.
func Decode(raw json.RawMessage) ([]Day, error) {
	var days []Day
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("decode study plan: %w", err)
	}
	return days, nil
}
