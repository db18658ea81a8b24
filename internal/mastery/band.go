package mastery

// Band is a coarse label for a mastery level.
type Band string

const (
	BandWeak       Band = "weak"
	BandDeveloping Band = "developing"
	BandStrong     Band = "strong"
)

// BandOf labels a mastery level: below WeakThreshold is weak, above
// CorrectThreshold is strong.
func BandOf(level int) Band {
	switch {
	case level < WeakThreshold:
		return BandWeak
	case level > CorrectThreshold:
		return BandStrong
	default:
		return BandDeveloping
	}
}
