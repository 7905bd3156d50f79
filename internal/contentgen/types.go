package contentgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/staarai/internal/teks"
)

// QuestionType is a worksheet item style.
type QuestionType string

const (
	ShortAnswer    QuestionType = "short_answer"
	MultipleChoice QuestionType = "multiple_choice"
	OpenResponse   QuestionType = "open_response"
)

// Label is the human-readable name used in prompts and forms.
func (q QuestionType) Label() string {
	switch q {
	case MultipleChoice:
		return "Multiple Choice"
	case OpenResponse:
		return "Open Response"
	default:
		return "Short Answer"
	}
}

// ParseQuestionType accepts codes ("mc"), labels ("Multiple Choice") and
// constant values ("multiple_choice").
func ParseQuestionType(s string) (QuestionType, error) {
	norm := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "sa", "shortanswer":
		return ShortAnswer, nil
	case "mc", "multiplechoice":
		return MultipleChoice, nil
	case "or", "openresponse":
		return OpenResponse, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// ParseQuestionTypes parses a comma-separated list, dropping duplicates.
func ParseQuestionTypes(s string) ([]QuestionType, error) {
	var out []QuestionType
	seen := map[QuestionType]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		qt, err := ParseQuestionType(part)
		if err != nil {
			return nil, err
		}
		if !seen[qt] {
			seen[qt] = true
			out = append(out, qt)
		}
	}
	return out, nil
}

// ModeFor picks the single question type a worksheet is built and checked
// against: multiple choice if requested, else open response if requested,
// else short answer.
func ModeFor(types []QuestionType) QuestionType {
	has := func(want QuestionType) bool {
		for _, t := range types {
			if t == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(MultipleChoice):
		return MultipleChoice
	case has(OpenResponse):
		return OpenResponse
	default:
		return ShortAnswer
	}
}

// DocKind distinguishes generated documents.
type DocKind string

const (
	Lesson    DocKind = "lesson"
	Worksheet DocKind = "worksheet"
)

// Request is one generation request. It is built per user action and not
// persisted.
type Request struct {
	Standard        teks.Standard
	Bilingual       bool
	QuestionTypes   []QuestionType
	TeacherNotes    string
	AttachmentsText string
	StrictAlign     bool
}

// Mode is the worksheet question type for this request.
func (r Request) Mode() QuestionType {
	return ModeFor(r.QuestionTypes)
}

// StandardDescription is the description text given to the model and the
// alignment judge. Bilingual requests include the Spanish text when known.
func (r Request) StandardDescription() string {
	en := strings.TrimSpace(r.Standard.DescriptionEN)
	es := strings.TrimSpace(r.Standard.DescriptionES)
	if en == "" {
		en = es
		es = ""
	}
	if r.Bilingual && es != "" && en != "" {
		return "EN: " + en + "\nES: " + es
	}
	return en
}

// WantsPassage reports whether the lesson should carry a paired passage.
func (r Request) WantsPassage() bool {
	return r.Standard.Subject == teks.Reading ||
		strings.Contains(strings.ToLower(r.TeacherNotes), "story")
}

// Document is generated Markdown. Repairs replace Text wholesale.
type Document struct {
	Kind DocKind
	Text string
	// Fallback marks generic template content produced without the model.
	Fallback bool
}
