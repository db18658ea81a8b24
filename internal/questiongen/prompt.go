package questiongen

import (
	"fmt"
	"math"
	"strings"

	"github.com/learnedge/learnedge/internal/ai"
)

const systemPrompt = `You are an expert examiner writing practice questions from a student's own study material.

Rules:
- Every question must be answerable from the material alone.
- MCQ questions have exactly 4 options and correctAnswer is the text of the correct option.
- SHORT questions expect one or two sentences; LONG questions expect a paragraph.
- subTopic names the concept the question tests. Reuse one of the listed topics when given.
- Explanations state why the correct answer is right.`

// Mix is the target split of a question set by type.
type Mix struct {
	MCQ, Short, Long int
}

// MixFor splits count roughly 60/30/10 across MCQ, SHORT and LONG.
func MixFor(count int) Mix {
	if count <= 0 {
		return Mix{}
	}
	long := int(math.Round(float64(count) * 0.1))
	short := int(math.Round(float64(count) * 0.3))
	return Mix{MCQ: count - short - long, Short: short, Long: long}
}

// DifficultyFor maps a mastery level to the difficulty the set should lean to.
func DifficultyFor(mastery int) string {
	switch {
	case mastery < 40:
		return "EASY"
	case mastery < 75:
		return "MEDIUM"
	default:
		return "HARD"
	}
}

func buildUserMessage(input GenerateInput, count int) string {
	mix := MixFor(count)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d exam questions. Mastery Level: %d%%.\n", count, input.MasteryLevel)
	fmt.Fprintf(&b, "Lean towards %s difficulty.\n", DifficultyFor(input.MasteryLevel))
	fmt.Fprintf(&b, "Aim for %d MCQ, %d SHORT and %d LONG questions.\n", mix.MCQ, mix.Short, mix.Long)
	if len(input.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(input.Topics, ", "))
	}
	b.WriteString(`Return a JSON object: { "questions": [{ "type": "MCQ" | "SHORT" | "LONG", "questionText": "...", "difficulty": "EASY" | "MEDIUM" | "HARD", "options": [...], "correctAnswer": "...", "explanation": "...", "subTopic": "..." }] }`)
	b.WriteString("\n\nContent: ")
	b.WriteString(ai.Truncate(input.Content))
	return b.String()
}
