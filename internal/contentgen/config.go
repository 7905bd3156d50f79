package contentgen

import "github.com/abhisek/staarai/internal/teks"

// Config controls the behavior of the Generator.
type Config struct {
	// Validators run on every worksheet. Unlike a fail-fast chain, all of
	// them run so a single repair request can list every correction.
	Validators []Validator

	// Policies maps a catalog identity to its topic constraints.
	Policies map[teks.Key]TopicPolicy

	LessonMaxTokens    int
	WorksheetMaxTokens int

	// Temperature applies to lesson, worksheet and repair calls.
	Temperature float64

	// AttachmentLimit caps the attachment excerpt, in characters.
	AttachmentLimit int

	// ItemsPerLanguage is the number of English items, and of Spanish items
	// on a bilingual worksheet.
	ItemsPerLanguage int

	// LegacySymmetricItems keeps Spanish items on monolingual worksheets.
	LegacySymmetricItems bool
}

// DefaultConfig returns a Config with every structural rule and the shipped
// topic policies.
func DefaultConfig() Config {
	return Config{
		Validators:         DefaultValidators(),
		Policies:           DefaultPolicies(),
		LessonMaxTokens:    1800,
		WorksheetMaxTokens: 2200,
		Temperature:        0.2,
		AttachmentLimit:    6000,
		ItemsPerLanguage:   8,
	}
}
