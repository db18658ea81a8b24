package questiongen

// Config controls the Generator.
type Config struct {
	// Validators run in order on every generated question; the first
	// failure rejects the set.
	Validators []Validator

	// Count is the default number of questions per set.
	Count int

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard validator chain and defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionsValidator{},
		},
		Count:       10,
		MaxTokens:   8192,
		Temperature: 0.7,
	}
}
