package contentgen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	itemLine    = regexp.MustCompile(`^\s*-\s*([QP])(\d+)\.`)
	optionLine  = regexp.MustCompile(`^\s*-\s*([A-D])[.)]`)
	keyHeader   = regexp.MustCompile(`(?i)answer\s+key|clave\s+de\s+respuestas`)
	headingLine = regexp.MustCompile(`^\s*#`)
	blankRun    = regexp.MustCompile(`_{3,}`)
)

// placeholders are template tokens a model sometimes leaves behind.
var placeholders = []string{
	slotQuestion, slotChoice, slotLetter,
	"[stem]", "[question]", "[answer]", "[option]", "<stem>", "{{", "}}", "lorem ipsum",
}

// DefaultValidators returns every structural rule.
func DefaultValidators() []Validator {
	return []Validator{
		&ItemCountValidator{},
		&ChoiceOptionsValidator{},
		&NoOptionsValidator{},
		&NoBlanksValidator{},
		&PlaceholderValidator{},
		&TopicValidator{},
	}
}

type item struct {
	prefix string // "Q" or "P"
	number int
	lines  []string
}

func (it item) label() string { return it.prefix + strconv.Itoa(it.number) }

// parseItems splits text into item blocks. A block runs from its marker to
// the next item marker, heading, or answer-key line.
func parseItems(text string) []item {
	var items []item
	var cur *item
	for _, line := range strings.Split(text, "\n") {
		if m := itemLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[2])
			items = append(items, item{prefix: m[1], number: n})
			cur = &items[len(items)-1]
			continue
		}
		if headingLine.MatchString(line) || keyHeader.MatchString(line) {
			cur = nil
			continue
		}
		if cur != nil {
			cur.lines = append(cur.lines, line)
		}
	}
	return items
}

// ItemCountValidator requires exactly the expected number of English and
// Spanish items, numbered from 1.
type ItemCountValidator struct{}

func (v *ItemCountValidator) Name() string { return "item-count" }

func (v *ItemCountValidator) Validate(text string, spec Spec) *ValidationError {
	byPrefix := map[string][]int{}
	for _, it := range parseItems(text) {
		byPrefix[it.prefix] = append(byPrefix[it.prefix], it.number)
	}

	var fixes []string
	check := func(prefix, lang string, want int) {
		got := byPrefix[prefix]
		switch {
		case len(got) != want && want == 0:
			fixes = append(fixes, fmt.Sprintf("remove all %d %s items (- %s<n>.); this worksheet has no %s section", len(got), lang, prefix, lang))
		case len(got) != want:
			fixes = append(fixes, fmt.Sprintf("write exactly %d %s items marked - %s1. through - %s%d. (found %d)", want, lang, prefix, prefix, want, len(got)))
		case want > 0 && !sequential(got):
			fixes = append(fixes, fmt.Sprintf("number the %s items - %s1. through - %s%d. in order", lang, prefix, prefix, want))
		}
	}
	check("Q", "English", spec.ENItems)
	check("P", "Spanish", spec.ESItems)

	if len(fixes) == 0 {
		return nil
	}
	return &ValidationError{
		Validator:   v.Name(),
		Message:     "wrong number of items",
		Corrections: fixes,
	}
}

func sequential(nums []int) bool {
	for i, n := range nums {
		if n != i+1 {
			return false
		}
	}
	return true
}

// ChoiceOptionsValidator requires four distinct options A through D on every
// item of a multiple-choice worksheet.
type ChoiceOptionsValidator struct{}

func (v *ChoiceOptionsValidator) Name() string { return "choice-options" }

func (v *ChoiceOptionsValidator) Validate(text string, spec Spec) *ValidationError {
	if spec.Mode != MultipleChoice {
		return nil
	}
	var fixes []string
	for _, it := range parseItems(text) {
		var letters []string
		seen := map[string]bool{}
		dup := false
		for _, line := range it.lines {
			if m := optionLine.FindStringSubmatch(line); m != nil {
				if seen[m[1]] {
					dup = true
				}
				seen[m[1]] = true
				letters = append(letters, m[1])
			}
		}
		if len(letters) == 4 && len(seen) == 4 && !dup {
			continue
		}
		found := "none"
		if len(letters) > 0 {
			found = strings.Join(letters, ", ")
		}
		fixes = append(fixes, fmt.Sprintf("give %s exactly four options - A. - B. - C. - D., each once (found %s)", it.label(), found))
	}
	if len(fixes) == 0 {
		return nil
	}
	return &ValidationError{
		Validator:   v.Name(),
		Message:     "multiple-choice items need options A through D",
		Corrections: fixes,
	}
}

// NoOptionsValidator forbids option markers on short-answer and
// open-response worksheets.
type NoOptionsValidator struct{}

func (v *NoOptionsValidator) Name() string { return "no-options" }

func (v *NoOptionsValidator) Validate(text string, spec Spec) *ValidationError {
	if spec.Mode == MultipleChoice {
		return nil
	}
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if optionLine.MatchString(line) {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &ValidationError{
		Validator: v.Name(),
		Message:   fmt.Sprintf("%d option lines on a %s worksheet", count, spec.Mode.Label()),
		Corrections: []string{
			fmt.Sprintf("remove all %d answer-choice lines starting with - A. through - D.; items are %s", count, spec.Mode.Label()),
		},
	}
}

// NoBlanksValidator forbids fill-in blanks on open-response worksheets.
type NoBlanksValidator struct{}

func (v *NoBlanksValidator) Name() string { return "no-blanks" }

func (v *NoBlanksValidator) Validate(text string, spec Spec) *ValidationError {
	if spec.Mode != OpenResponse || !blankRun.MatchString(text) {
		return nil
	}
	return &ValidationError{
		Validator:   v.Name(),
		Message:     "open-response items contain ___ blanks",
		Corrections: []string{"remove every ___ blank; open-response items ask for a written explanation"},
	}
}

// PlaceholderValidator rejects leftover template tokens.
type PlaceholderValidator struct{}

func (v *PlaceholderValidator) Name() string { return "placeholder" }

func (v *PlaceholderValidator) Validate(text string, _ Spec) *ValidationError {
	lower := strings.ToLower(text)
	var found []string
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return &ValidationError{
		Validator:   v.Name(),
		Message:     "placeholder tokens present",
		Corrections: []string{"replace the placeholder tokens " + strings.Join(found, " ") + " with real content"},
	}
}

// TopicValidator enforces the standard's topic policy.
type TopicValidator struct{}

func (v *TopicValidator) Name() string { return "topic" }

func (v *TopicValidator) Validate(text string, spec Spec) *ValidationError {
	if spec.Policy == nil {
		return nil
	}
	p := spec.Policy
	var fixes []string
	if banned := p.BannedFound(text); len(banned) > 0 {
		fixes = append(fixes, "remove off-topic terms: "+strings.Join(banned, ", "))
	}
	if p.MinRequiredHits > 0 {
		hits := p.RequiredFound(text)
		if len(hits) < p.MinRequiredHits {
			missing := difference(p.RequiredTerms, hits)
			fixes = append(fixes, fmt.Sprintf("use at least %d of these terms (found %d): %s",
				p.MinRequiredHits, len(hits), strings.Join(missing, ", ")))
		}
	}
	if len(fixes) == 0 {
		return nil
	}
	return &ValidationError{
		Validator:   v.Name(),
		Message:     "content drifts from the standard's topic",
		Corrections: fixes,
	}
}

func difference(all, have []string) []string {
	got := map[string]bool{}
	for _, h := range have {
		got[h] = true
	}
	var out []string
	for _, t := range all {
		if !got[t] {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
