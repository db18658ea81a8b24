package questiongen

import "fmt"

// Validator checks one generated question.
type Validator interface {
	// Name identifies the validator in errors and logs.
	Name() string

	// Validate returns nil if q passes.
	Validate(q *Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Index     int
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: question %d: %s", e.Validator, e.Index, e.Message)
}

// StructuralValidator checks required fields and the question type.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	switch {
	case q.Type != TypeMCQ && q.Type != TypeShort && q.Type != TypeLong:
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("type %q is not MCQ, SHORT or LONG", q.Type)}
	case q.QuestionText == "":
		return &ValidationError{Validator: v.Name(), Message: "questionText is empty"}
	case q.CorrectAnswer == "":
		return &ValidationError{Validator: v.Name(), Message: "correctAnswer is empty"}
	}
	return nil
}

// OptionsValidator requires MCQ questions to carry at least two distinct,
// non-empty options.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *Question) *ValidationError {
	if q.Type != TypeMCQ {
		return nil
	}
	if len(q.Options) < 2 {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("MCQ has %d options, need at least 2", len(q.Options))}
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if o == "" {
			return &ValidationError{Validator: v.Name(), Message: "MCQ has an empty option"}
		}
		if seen[o] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("MCQ repeats option %q", o)}
		}
		seen[o] = true
	}
	return nil
}
