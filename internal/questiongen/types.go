// Package questiongen produces quiz question sets from material content.
package questiongen

// Question types.
const (
	TypeMCQ   = "MCQ"
	TypeShort = "SHORT"
	TypeLong  = "LONG"
)

// Question is a generated question before it is persisted.
type Question struct {
	Type          string   `json:"type"`
	QuestionText  string   `json:"questionText"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	SubTopic      string   `json:"subTopic"`
}

// GenerateInput holds what a question set is generated from.
type GenerateInput struct {
	// Content is the raw material text. Truncated before prompting.
	Content string

	// Count is how many questions to ask for. Zero uses Config.Count.
	Count int

	// MasteryLevel is the learner's average mastery (0-100) and biases
	// difficulty.
	MasteryLevel int

	// Topics are the material's analyzed topic names, used as the
	// allowed subTopic vocabulary when present.
	Topics []string
}
